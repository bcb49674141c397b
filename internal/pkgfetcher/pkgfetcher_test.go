package pkgfetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/conda/linux-64/repodata.json":
			io.WriteString(w, `{"packages": {}}`)
		case "/debian/dists/bookworm/main/binary-amd64/Packages":
			io.WriteString(w, "Package: bash\nVersion: 5.2\n")
		case "/rpm/x86_64/repodata/repomd.xml":
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<repomd xmlns="http://linux.duke.edu/metadata/repo">
  <data type="primary">
    <location href="repodata/abc-primary.xml"/>
  </data>
</repomd>`)
		case "/rpm/x86_64/repodata/abc-primary.xml":
			io.WriteString(w, `<metadata></metadata>`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	prevClient, prevWriter := httpClient, ProgressWriter
	httpClient = srv.Client()
	ProgressWriter = io.Discard
	t.Cleanup(func() {
		httpClient = prevClient
		ProgressWriter = prevWriter
	})
	return srv
}

func TestFetchIndexes(t *testing.T) {
	srv := newTestServer(t)
	dest := t.TempDir()

	urls := []string{
		srv.URL + "/conda/linux-64/repodata.json",
		srv.URL + "/debian/dists/bookworm/main/binary-amd64/Packages",
		srv.URL + "/rpm/x86_64/repodata/repomd.xml",
	}
	got, err := FetchIndexes(context.Background(), urls, dest, 2)
	if err != nil {
		t.Fatalf("FetchIndexes: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}

	if got[0].URL != urls[0] || got[0].BaseURL != srv.URL+"/conda/linux-64" {
		t.Errorf("unexpected conda result %+v", got[0])
	}
	content, err := os.ReadFile(got[0].Path)
	if err != nil || string(content) != `{"packages": {}}` {
		t.Errorf("conda content = %q, %v", content, err)
	}
	if filepath.Dir(got[1].Path) != dest || !strings.HasSuffix(got[1].Path, "-Packages") {
		t.Errorf("unexpected deb path %s", got[1].Path)
	}

	// repomd.xml is replaced by the primary metadata it points at
	if got[2].URL != srv.URL+"/rpm/x86_64/repodata/abc-primary.xml" {
		t.Errorf("repomd not resolved: %s", got[2].URL)
	}
	if !strings.HasSuffix(got[2].Path, "-abc-primary.xml") {
		t.Errorf("unexpected rpm path %s", got[2].Path)
	}
}

func TestFetchIndexesReportsFailures(t *testing.T) {
	srv := newTestServer(t)
	dest := t.TempDir()

	urls := []string{
		srv.URL + "/conda/linux-64/repodata.json",
		srv.URL + "/missing/Packages",
	}
	got, err := FetchIndexes(context.Background(), urls, dest, 4)
	if err == nil {
		t.Fatal("expected error for missing index")
	}
	if got != nil {
		t.Errorf("expected no partial results, got %v", got)
	}
	if !strings.Contains(err.Error(), "/missing/Packages") {
		t.Errorf("error should name the failing URL: %v", err)
	}

	entries, _ := os.ReadDir(dest)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".part") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestFetchIndexesEmpty(t *testing.T) {
	got, err := FetchIndexes(context.Background(), nil, t.TempDir(), 2)
	if err != nil || got != nil {
		t.Errorf("FetchIndexes(nil) = %v, %v", got, err)
	}
}

func TestCacheName(t *testing.T) {
	a := CacheName("https://deb.example.com/debian/dists/bookworm/main/binary-amd64/Packages.xz")
	b := CacheName("https://deb.example.com/debian/dists/bookworm/main/binary-arm64/Packages.xz")
	if a == b {
		t.Errorf("different URLs share cache name %s", a)
	}
	if !strings.HasSuffix(a, "-Packages.xz") {
		t.Errorf("cache name should keep the base name: %s", a)
	}
	if a != CacheName("https://deb.example.com/debian/dists/bookworm/main/binary-amd64/Packages.xz") {
		t.Error("cache name must be stable")
	}
}
