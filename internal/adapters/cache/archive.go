package cache

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// writeArchive stores the trees at paths in a zstd compressed tar file.
// Entries of paths[i] are named "<i>/<relative path>".
func writeArchive(ctx context.Context, w io.Writer, paths []string) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(zw)

	for i, root := range paths {
		base := strconv.Itoa(i)
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			return addEntry(tw, p, path.Join(base, filepath.ToSlash(rel)), d)
		})
		if err != nil {
			_ = tw.Close()
			_ = zw.Close()
			return fmt.Errorf("failed to archive %s: %w", root, err)
		}
	}

	if err := tw.Close(); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func addEntry(tw *tar.Writer, p, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(p); err != nil {
			return err
		}
	}
	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(tw, f)
	return err
}

// readArchive restores the trees written by writeArchive into paths.
func readArchive(ctx context.Context, r io.Reader, paths []string) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		target, err := resolve(hdr.Name, paths)
		if err != nil {
			return err
		}
		if err := extractEntry(tr, hdr, target); err != nil {
			return fmt.Errorf("failed to restore %s: %w", target, err)
		}
	}
}

// resolve maps an entry name to its location below paths.
func resolve(name string, paths []string) (string, error) {
	base, rel, _ := strings.Cut(strings.TrimSuffix(name, "/"), "/")
	i, err := strconv.Atoi(base)
	if err != nil || i < 0 || i >= len(paths) {
		return "", fmt.Errorf("unexpected archive entry %q", name)
	}
	if rel == "" || rel == "." {
		return paths[i], nil
	}
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", fmt.Errorf("archive entry %q escapes its root", name)
	}
	return filepath.Join(paths[i], filepath.FromSlash(rel)), nil
}

func extractEntry(tr *tar.Reader, hdr *tar.Header, target string) error {
	mode := fs.FileMode(hdr.Mode).Perm()
	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, mode|0o700)
	case tar.TypeSymlink:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		_ = os.Remove(target)
		return os.Symlink(hdr.Linkname, target)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, tr); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	default:
		return nil
	}
}
