package source

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/muzzletov/mendxml"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"plain", []byte(`<a/>`), `<a/>`},
		{"utf8 bom", []byte("\xef\xbb\xbf<a/>"), `<a/>`},
		{"utf16 le bom", []byte{0xff, 0xfe, '<', 0, 'a', 0, '/', 0, '>', 0}, `<a/>`},
		{"utf16 be bom", []byte{0xfe, 0xff, 0, '<', 0, 'b', 0, '/', 0, '>'}, `<b/>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoaderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.xml")
	if err := os.WriteFile(path, []byte("\xef\xbb\xbf<items/>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewLoader(nil).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != "<items/>" {
		t.Errorf("Load() = %q, want %q", got, "<items/>")
	}
}

func TestLoaderStdin(t *testing.T) {
	loader := &Loader{Stdin: strings.NewReader("<a>1 < 2</a>")}

	got, err := loader.Load(context.Background(), Stdin)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != "<a>1 < 2</a>" {
		t.Errorf("Load() = %q", got)
	}
}

func TestLoaderRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<sheet id="s"/>`))
	}))
	defer server.Close()

	got, err := NewLoader(mendxml.NewClient()).Load(context.Background(), server.URL+"/sheet.xml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != `<sheet id="s"/>` {
		t.Errorf("Load() = %q", got)
	}
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := NewLoader(nil).Load(context.Background(), filepath.Join(t.TempDir(), "nope.xml"))
	if err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Load() error = %v, want a not-exist error", err)
	}
}

func TestIsRemote(t *testing.T) {
	if !IsRemote("https://example.com/a.xml") || !IsRemote("http://x/") {
		t.Error("IsRemote() = false for an URL")
	}
	if IsRemote("data/items.xml") || IsRemote(Stdin) {
		t.Error("IsRemote() = true for a local location")
	}
}
