package cmd

import (
	archivezip "archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hsakai/streamzip/zip"
)

func TestArchivePaths(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tree")
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("alpha"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("beta"), 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	zw := zip.New(&buf)
	if err := archivePaths(zw, []string{root}, zip.Deflate); err != nil {
		t.Fatalf("archivePaths: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := archivezip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading produced archive: %v", err)
	}

	want := map[string]string{
		"tree/":          "",
		"tree/a.txt":     "alpha",
		"tree/sub/":      "",
		"tree/sub/b.txt": "beta",
	}
	if len(r.File) != len(want) {
		t.Fatalf("got %d entries, want %d", len(r.File), len(want))
	}
	for _, f := range r.File {
		content, ok := want[f.Name]
		if !ok {
			t.Errorf("unexpected entry %q", f.Name)
			continue
		}
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		if string(got) != content {
			t.Errorf("%s = %q, want %q", f.Name, got, content)
		}
	}
}

func TestMethodFromName(t *testing.T) {
	cases := []struct {
		in   string
		want uint16
		ok   bool
	}{
		{"deflate", zip.Deflate, true},
		{"Store", zip.Store, true},
		{"DEFLATE", zip.Deflate, true},
		{"lzma", 0, false},
	}
	for _, c := range cases {
		got, err := methodFromName(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("methodFromName(%q) = %d, %v", c.in, got, err)
		}
		if !c.ok && err == nil {
			t.Errorf("methodFromName(%q) succeeded unexpectedly", c.in)
		}
	}
}
