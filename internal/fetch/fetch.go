// Package fetch downloads county parcel source archives over HTTP or FTP
// and unpacks them into dataset partition directories.
package fetch

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures a Fetcher.
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
	RateBurst     int
}

// Fetcher retrieves remote parcel archives. Downloads are paced by a
// shared rate limiter so bulk county pulls stay polite.
type Fetcher struct {
	opts    Options
	limiter *rate.Limiter
	ftp     *ftpClient
}

// New creates a Fetcher with the given options.
func New(opts Options) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "parcel-cli/1.0"
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 2
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 1
	}
	return &Fetcher{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.RateBurst),
		ftp:     &ftpClient{timeout: opts.Timeout},
	}
}

// Fetch downloads rawURL into destDir. ZIP archives are extracted in
// place; other files are saved under their base name. Returns the paths
// of the files written.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destDir string) ([]string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: parse url")
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "fetch: create dest dir")
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetch: rate wait")
	}

	name := filepath.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = "download"
	}
	tmp := filepath.Join(destDir, name+".part")

	log := zap.L().With(
		zap.String("component", "fetch"),
		zap.String("url", rawURL),
		zap.String("dest", destDir),
	)
	log.Info("downloading")

	switch u.Scheme {
	case "http", "https":
		err = f.downloadHTTP(ctx, rawURL, tmp)
	case "ftp":
		_, err = f.ftp.downloadToFile(ctx, rawURL, tmp)
	default:
		return nil, eris.Errorf("fetch: unsupported scheme %q", u.Scheme)
	}
	if err != nil {
		os.Remove(tmp)
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(name), ".zip") {
		defer os.Remove(tmp)
		paths, err := ExtractZIP(tmp, destDir)
		if err != nil {
			return nil, err
		}
		log.Info("archive extracted", zap.Int("files", len(paths)))
		return paths, nil
	}

	final := filepath.Join(destDir, name)
	if err := os.Rename(tmp, final); err != nil {
		return nil, eris.Wrap(err, "fetch: finalize download")
	}
	log.Info("download complete")
	return []string{final}, nil
}
