package ports

import "context"

// Downloader fetches a remote resource into a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// ReleaseLookup reports the release year of the current TeX Live.
type ReleaseLookup interface {
	LatestRelease(ctx context.Context) (int, error)
}
