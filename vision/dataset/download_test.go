package dataset

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range entries {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry: %v", err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write zip entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func TestDownloadExtractsZip(t *testing.T) {
	payload := buildZip(t, map[string]string{
		"data/benign/a.png":    "aaa",
		"data/malignant/b.png": "bbb",
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	dest := t.TempDir()
	if err := Download(server.URL+"/busi.zip", dest); err != nil {
		t.Fatalf("download failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dest, "data", "benign", "a.png"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(content) != "aaa" {
		t.Errorf("unexpected content %q", content)
	}
	if _, err := os.Stat(filepath.Join(dest, "data", "malignant", "b.png")); err != nil {
		t.Errorf("second entry missing: %v", err)
	}
}

func TestDownloadStoresPlainFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain payload"))
	}))
	defer server.Close()

	dest := t.TempDir()
	if err := Download(server.URL+"/weights.bin", dest); err != nil {
		t.Fatalf("download failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dest, "weights.bin"))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(content) != "plain payload" {
		t.Errorf("unexpected content %q", content)
	}
}

func TestDownloadReportsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	if err := Download(server.URL+"/missing.zip", t.TempDir()); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestUnzipRejectsEscapingEntries(t *testing.T) {
	payload := buildZip(t, map[string]string{
		"../evil.txt": "escape",
	})

	archive := filepath.Join(t.TempDir(), "evil.zip")
	if err := os.WriteFile(archive, payload, 0644); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}

	dest := t.TempDir()
	if err := Unzip(archive, dest); err == nil {
		t.Error("expected error for path traversal entry")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "evil.txt")); !os.IsNotExist(err) {
		t.Error("traversal entry was written outside the destination")
	}
}
