package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// DownloadCall records a Downloader.Download invocation.
type DownloadCall struct {
	URL  string
	Dest string
}

// Downloader is a test double for ports.Downloader. Successful downloads
// write a placeholder file to the backing FileSystem when one is set.
type Downloader struct {
	mu     sync.Mutex
	fs     *FileSystem
	errors map[string]error
	calls  []DownloadCall
}

// NewDownloader creates a Downloader mock writing into fs (may be nil).
func NewDownloader(fs *FileSystem) *Downloader {
	return &Downloader{fs: fs, errors: make(map[string]error)}
}

// SetError makes downloads of url fail with err.
func (m *Downloader) SetError(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[url] = err
}

// Download records the call.
func (m *Downloader) Download(_ context.Context, url, dest string) error {
	m.mu.Lock()
	m.calls = append(m.calls, DownloadCall{URL: url, Dest: dest})
	err := m.errors[url]
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if m.fs != nil {
		m.fs.AddFile(dest, url)
	}
	return nil
}

// Calls returns the recorded downloads.
func (m *Downloader) Calls() []DownloadCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DownloadCall(nil), m.calls...)
}

// ReleaseLookup is a test double for ports.ReleaseLookup.
type ReleaseLookup struct {
	year int
	err  error
}

// NewReleaseLookup returns a lookup reporting year, or err when non-nil.
func NewReleaseLookup(year int, err error) *ReleaseLookup {
	return &ReleaseLookup{year: year, err: err}
}

// LatestRelease returns the configured result.
func (m *ReleaseLookup) LatestRelease(context.Context) (int, error) {
	return m.year, m.err
}

// Extractor is a test double for ports.Extractor. Each extraction creates
// the configured entries below the destination in the backing FileSystem.
type Extractor struct {
	mu      sync.Mutex
	fs      *FileSystem
	entries []string
	err     error
	calls   []DownloadCall
}

// NewExtractor creates an Extractor that materializes entries (relative
// paths; a trailing slash marks a directory) in fs.
func NewExtractor(fs *FileSystem, entries ...string) *Extractor {
	return &Extractor{fs: fs, entries: entries}
}

// SetError makes every extraction fail with err.
func (m *Extractor) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Extract records the call and materializes the configured entries.
func (m *Extractor) Extract(_ context.Context, archive, dest string) error {
	m.mu.Lock()
	m.calls = append(m.calls, DownloadCall{URL: archive, Dest: dest})
	err := m.err
	m.mu.Unlock()

	if err != nil {
		return err
	}
	for _, e := range m.entries {
		if e[len(e)-1] == '/' {
			m.fs.AddDir(dest + "/" + e)
			continue
		}
		m.fs.AddFile(dest+"/"+e, "")
	}
	return nil
}

// Calls returns the recorded extractions; URL holds the archive path.
func (m *Extractor) Calls() []DownloadCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DownloadCall(nil), m.calls...)
}

var (
	_ ports.Downloader    = (*Downloader)(nil)
	_ ports.ReleaseLookup = (*ReleaseLookup)(nil)
	_ ports.Extractor     = (*Extractor)(nil)
)
