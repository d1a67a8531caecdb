package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/lexfreq/pkg/lexfreq/internalerr"
)

func TestWalkFindsNestedFiles(t *testing.T) {
	root := t.TempDir()
	paths := []string{
		"OpenSubtitles/xml/es/b.xml.gz",
		"OpenSubtitles/xml/es/a.xml.gz",
		"Europarl/xml/es/ep.xml.gz",
		"Europarl/xml/es/README",
		".DS_Store",
	}
	for _, p := range paths {
		full := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := Walk(root, ".gz")
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{
		filepath.Join(root, "Europarl/xml/es/ep.xml.gz"),
		filepath.Join(root, "OpenSubtitles/xml/es/a.xml.gz"),
		filepath.Join(root, "OpenSubtitles/xml/es/b.xml.gz"),
	}
	if len(files) != len(want) {
		t.Fatalf("Expected %d files, got %v", len(want), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestWalkSkipsDirectoriesWithExtension(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "odd.gz"), 0755)

	files, err := Walk(root, ".gz")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("Directories should not match, got %v", files)
	}
}

func TestWalkMissingRoot(t *testing.T) {
	_, err := Walk("/nonexistent/corpus", ".gz")
	if !errors.Is(err, internalerr.ErrCorpusRoot) {
		t.Errorf("Expected ErrCorpusRoot, got %v", err)
	}
}
