package fetch

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// ExtractZIP extracts a ZIP archive to the destination directory,
// flattening any internal directory structure. Returns the extracted
// file paths.
func ExtractZIP(zipPath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: open zip")
	}
	defer r.Close() //nolint:errcheck

	var paths []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		name := filepath.Base(f.Name)
		destPath := filepath.Join(destDir, name)

		rc, err := f.Open()
		if err != nil {
			return nil, eris.Wrapf(err, "fetch: open zip entry %s", f.Name)
		}

		outFile, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return nil, eris.Wrapf(err, "fetch: create %s", destPath)
		}

		if _, err := io.Copy(outFile, rc); err != nil {
			_ = outFile.Close()
			_ = rc.Close()
			return nil, eris.Wrapf(err, "fetch: extract %s", f.Name)
		}
		_ = outFile.Close()
		_ = rc.Close()

		paths = append(paths, destPath)
	}

	return paths, nil
}
