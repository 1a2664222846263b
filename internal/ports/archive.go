package ports

import "context"

// Extractor unpacks an archive file into a directory.
type Extractor interface {
	Extract(ctx context.Context, archive, dest string) error
}
