package dataset

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Download fetches a dataset archive over HTTP and unpacks it into destDir.
// Zip archives are extracted; any other payload is stored as a single file
// named after the last URL path segment.
func Download(url, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %v", destDir, err)
	}

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp("", "sonoclass-download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return fmt.Errorf("failed to save download: %v", err)
	}

	if _, err := zip.OpenReader(tmp.Name()); err == nil {
		return Unzip(tmp.Name(), destDir)
	}

	name := filepath.Base(strings.TrimRight(url, "/"))
	if name == "" || name == "." || name == "/" {
		name = "download"
	}
	dest, err := os.Create(filepath.Join(destDir, name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", name, err)
	}
	defer dest.Close()

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.Copy(dest, tmp); err != nil {
		return fmt.Errorf("failed to write %s: %v", name, err)
	}
	return nil
}

// Unzip extracts a zip archive into destDir, rejecting entries that would
// escape it.
func Unzip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %v", err)
	}
	defer reader.Close()

	cleanDest := filepath.Clean(destDir)
	for _, entry := range reader.File {
		target := filepath.Join(cleanDest, entry.Name)
		if !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination", entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := extractFile(entry, target); err != nil {
			return fmt.Errorf("failed to extract %s: %v", entry.Name, err)
		}
	}
	return nil
}

func extractFile(entry *zip.File, target string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
