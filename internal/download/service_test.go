package download

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
)

// fakeFetcher serves bodies from a map keyed by URL
type fakeFetcher struct {
	bodies map[string]string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	body, ok := f.bodies[url]
	if !ok {
		return nil, 0, domain.NewRemoteError(404, "no such product")
	}
	return io.NopCloser(strings.NewReader(body)), int64(len(body)), nil
}

func TestDownloadAll(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{bodies: map[string]string{
		"http://archive/data/a.fits": "fits-data-a",
		"http://archive/data/b.fits": "fits-data-bb",
	}}
	svc := NewService(fetcher, dir, 2, nil)

	products := []entity.Product{
		{Name: "a", FileName: "a.fits", AccessURL: "http://archive/data/a.fits"},
		{Name: "b", FileName: "b.fits", AccessURL: "http://archive/data/b.fits"},
	}

	manifest, err := svc.DownloadAll(context.Background(), "euclid", products)
	if err != nil {
		t.Fatalf("DownloadAll() error: %v", err)
	}
	if len(manifest.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(manifest.Entries))
	}
	for _, entry := range manifest.Entries {
		if entry.Status != entity.DownloadCompleted {
			t.Errorf("entry %s status = %s", entry.Product.Name, entry.Status)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "a.fits"))
	if err != nil {
		t.Fatalf("downloaded file missing: %v", err)
	}
	if string(data) != "fits-data-a" {
		t.Errorf("file content = %q", data)
	}

	// no stray .part files
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".part") {
			t.Errorf("leftover partial file: %s", e.Name())
		}
	}
}

func TestDownloadAllDuplicateFileName(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{bodies: map[string]string{
		"http://archive/data/tile-1/psf.fits": "psf-tile-1",
		"http://archive/data/tile-2/psf.fits": "psf-tile-2",
	}}
	svc := NewService(fetcher, dir, 2, nil)

	manifest, err := svc.DownloadAll(context.Background(), "euclid", []entity.Product{
		{Name: "tile-1", FileName: "psf.fits", AccessURL: "http://archive/data/tile-1/psf.fits"},
		{Name: "tile-2", FileName: "psf.fits", AccessURL: "http://archive/data/tile-2/psf.fits"},
	})
	if err != nil {
		t.Fatalf("DownloadAll() error: %v", err)
	}

	paths := map[string]string{}
	for _, e := range manifest.Entries {
		if e.Status != entity.DownloadCompleted {
			t.Errorf("entry %s status = %s", e.Product.Name, e.Status)
		}
		paths[e.Product.Name] = e.LocalPath
	}
	if paths["tile-1"] == paths["tile-2"] {
		t.Fatalf("both products got local path %s", paths["tile-1"])
	}
	for name, want := range map[string]string{"tile-1": "psf-tile-1", "tile-2": "psf-tile-2"} {
		data, err := os.ReadFile(paths[name])
		if err != nil {
			t.Fatalf("downloaded file for %s missing: %v", name, err)
		}
		if string(data) != want {
			t.Errorf("%s content = %q, want %q", name, data, want)
		}
	}
}

func TestDownloadAllPartialFailure(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{bodies: map[string]string{
		"http://archive/data/good.fits": "ok",
	}}
	svc := NewService(fetcher, dir, 1, nil)

	manifest, err := svc.DownloadAll(context.Background(), "mast", []entity.Product{
		{Name: "good", FileName: "good.fits", AccessURL: "http://archive/data/good.fits"},
		{Name: "bad", FileName: "bad.fits", AccessURL: "http://archive/data/missing.fits"},
		{Name: "nourl", FileName: "nourl.fits"},
	})
	if err != nil {
		t.Fatalf("DownloadAll() error: %v", err)
	}

	byName := map[string]entity.ManifestEntry{}
	for _, e := range manifest.Entries {
		byName[e.Product.Name] = e
	}
	if byName["good"].Status != entity.DownloadCompleted {
		t.Errorf("good status = %s", byName["good"].Status)
	}
	if byName["bad"].Status != entity.DownloadFailed || byName["bad"].Error == "" {
		t.Errorf("bad entry = %+v", byName["bad"])
	}
	if byName["nourl"].Status != entity.DownloadFailed {
		t.Errorf("nourl status = %s", byName["nourl"].Status)
	}
}

func TestDownloadSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	content := "already here"
	if err := os.WriteFile(filepath.Join(dir, "c.fits"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// fetcher would fail, proving it is never called
	svc := NewService(&fakeFetcher{}, dir, 1, nil)
	manifest, err := svc.DownloadAll(context.Background(), "euclid", []entity.Product{
		{
			Name:      "c",
			FileName:  "c.fits",
			Size:      int64(len(content)),
			AccessURL: "http://archive/data/c.fits",
		},
	})
	if err != nil {
		t.Fatalf("DownloadAll() error: %v", err)
	}
	if manifest.Entries[0].Status != entity.DownloadSkipped {
		t.Errorf("status = %s, want skipped", manifest.Entries[0].Status)
	}
}

func TestDownloadAllEmpty(t *testing.T) {
	svc := NewService(&fakeFetcher{}, t.TempDir(), 1, nil)
	_, err := svc.DownloadAll(context.Background(), "euclid", nil)
	if !domain.IsInvalidQuery(err) {
		t.Errorf("DownloadAll(nil) error = %v, want ErrInvalidQuery", err)
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{bodies: map[string]string{"u": "x"}}
	svc := NewService(fetcher, dir, 1, nil)

	manifest, err := svc.DownloadAll(context.Background(), "euclid", []entity.Product{
		{Name: "p", FileName: "p.fits", AccessURL: "u"},
	})
	if err != nil {
		t.Fatalf("DownloadAll() error: %v", err)
	}

	path, err := svc.WriteManifest(manifest)
	if err != nil {
		t.Fatalf("WriteManifest() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	var decoded entity.Manifest
	if err := sonic.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("manifest not valid JSON: %v", err)
	}
	if decoded.Archive != "euclid" || len(decoded.Entries) != 1 {
		t.Errorf("unexpected manifest: %+v", decoded)
	}
}

func TestUpdateCallback(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{bodies: map[string]string{"u": "x"}}
	svc := NewService(fetcher, dir, 1, nil)

	seen := map[entity.DownloadStatus]bool{}
	svc.SetUpdateCallback(func(task *Task) {
		seen[task.Status] = true
	})

	if _, err := svc.DownloadAll(context.Background(), "euclid", []entity.Product{
		{Name: "p", FileName: "p.fits", AccessURL: "u"},
	}); err != nil {
		t.Fatalf("DownloadAll() error: %v", err)
	}
	if !seen[entity.DownloadInProgress] || !seen[entity.DownloadCompleted] {
		t.Errorf("callback missed states: %v", seen)
	}
}
