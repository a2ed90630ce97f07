package operator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MateoRodr13/qa-test-generator/internal/input"
)

func TestFileLabel(t *testing.T) {
	f := input.DiscoveredFile{
		Name:      "login.txt",
		SizeBytes: 128,
		ModTime:   time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	got := fileLabel(f)
	want := "login.txt (128 bytes, 2026-03-14 09:30)"
	if got != want {
		t.Errorf("fileLabel = %q, want %q", got, want)
	}
}

func TestFileLabelFromScannedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feature.txt")
	if err := os.WriteFile(path, []byte("describe the feature"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := input.ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("files = %d, want 1", len(files))
	}
	if files[0].ModTime.IsZero() {
		t.Fatal("scanned file has zero mod time")
	}

	got := fileLabel(files[0])
	wantStamp := files[0].ModTime.Format("2006-01-02 15:04")
	want := "feature.txt (20 bytes, " + wantStamp + ")"
	if got != want {
		t.Errorf("fileLabel = %q, want %q", got, want)
	}
}
