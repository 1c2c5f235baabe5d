package fetch

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/rotisserie/eris"
)

func (f *Fetcher) downloadHTTP(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "fetch: build request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	client := &http.Client{Timeout: f.opts.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return eris.Wrap(err, "fetch: download")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("fetch: download returned status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "fetch: create file")
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, resp.Body); err != nil {
		return eris.Wrap(err, "fetch: write file")
	}
	return nil
}
