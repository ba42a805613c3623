package service

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"coverly/internal/storage"
)

// ArchiveEntry names one stored image to include in a bulk archive.
type ArchiveEntry struct {
	Index int
	Title string
	Path  string
}

// Archiver packs a batch's completed images into a zip. Local storage is read
// straight from disk; remote backends are fetched over their public URLs.
type Archiver struct {
	store       storage.Storage
	publicURL   func(path string) string
	concurrency int
	httpClient  *http.Client
}

func NewArchiver(store storage.Storage, publicURL func(string) string, concurrency int) *Archiver {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Archiver{
		store:       store,
		publicURL:   publicURL,
		concurrency: concurrency,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// WriteZip fetches all entries with bounded concurrency and writes them to w
// in batch order. Entry names are numbered so the archive sorts naturally.
func (a *Archiver) WriteZip(ctx context.Context, w io.Writer, entries []ArchiveEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("no completed images to archive")
	}

	payloads := make([][]byte, len(entries))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.concurrency)

	for i, entry := range entries {
		group.Go(func() error {
			data, err := a.fetch(groupCtx, entry.Path)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", entry.Path, err)
			}
			payloads[i] = data
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for i, entry := range entries {
		fw, err := zw.Create(archiveFileName(i, entry))
		if err != nil {
			return err
		}
		if _, err := fw.Write(payloads[i]); err != nil {
			return err
		}
	}
	return zw.Close()
}

func (a *Archiver) fetch(ctx context.Context, path string) ([]byte, error) {
	if local, ok := a.store.(storage.LocalBaseDirProvider); ok {
		return os.ReadFile(filepath.Join(local.LocalBaseDir(), filepath.FromSlash(path)))
	}

	url := path
	if a.publicURL != nil {
		url = a.publicURL(path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func archiveFileName(position int, entry ArchiveEntry) string {
	ext := strings.TrimPrefix(filepath.Ext(entry.Path), ".")
	if ext == "" {
		ext = "png"
	}
	base := storage.SanitizeToken(strings.ReplaceAll(entry.Title, " ", "-"))
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("%02d_%s.%s", position+1, base, ext)
}
