package catalog

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docmirror/internal/forge"
	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
	"git.home.luguber.info/inful/docmirror/internal/logfields"
)

// SourceFile is one Markdown file found by a Lister. Path is root-prefixed and
// slash separated, e.g. "docs/guide/setup.md".
type SourceFile struct {
	Path string
	Read func(ctx context.Context) ([]byte, error)
}

// Lister enumerates Markdown files under the documentation root in scan order.
type Lister interface {
	List(ctx context.Context, ref string) ([]SourceFile, error)
}

// LocalLister walks a directory tree on disk.
type LocalLister struct {
	Base string // directory containing Root
	Root string // docs root, e.g. "docs"
}

// List walks Base/Root in lexical order, skipping hidden files and directories.
func (l LocalLister) List(ctx context.Context, _ string) ([]SourceFile, error) {
	rootDir := filepath.Join(l.Base, filepath.FromSlash(l.Root))
	if _, err := os.Stat(rootDir); err != nil {
		return nil, errors.FileSystemError("documentation root not readable").
			WithCause(err).
			WithContext("path", rootDir).
			Build()
	}

	var files []SourceFile
	err := filepath.WalkDir(rootDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if p != rootDir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isMarkdownFile(name) {
			return nil
		}
		rel, err := filepath.Rel(l.Base, p)
		if err != nil {
			return err
		}
		abs := p
		files = append(files, SourceFile{
			Path: filepath.ToSlash(rel),
			Read: func(context.Context) ([]byte, error) { return os.ReadFile(abs) },
		})
		return nil
	})
	if err != nil {
		return nil, errors.FileSystemError("failed to walk documentation root").
			WithCause(err).
			WithContext("path", rootDir).
			Build()
	}
	return files, nil
}

// TreeClient lists a remote repository tree.
type TreeClient interface {
	ListTree(ctx context.Context, ref string) ([]forge.TreeEntry, bool, error)
}

// ContentReader reads the raw content of a remote file, normally through the cache.
type ContentReader interface {
	ReadDocument(ctx context.Context, sourcePath, ref string) ([]byte, error)
}

// RemoteLister lists Markdown blobs of a hosted repository below Root.
type RemoteLister struct {
	Client         TreeClient
	Reader         ContentReader
	Root           string
	PrivateSegment string
}

// List returns blob entries under Root, excluding the private top-level segment.
func (l RemoteLister) List(ctx context.Context, ref string) ([]SourceFile, error) {
	entries, truncated, err := l.Client.ListTree(ctx, ref)
	if err != nil {
		return nil, err
	}
	if truncated {
		slog.Warn("Repository tree listing truncated; catalog may be incomplete", logfields.Ref(ref))
	}

	prefix := ""
	if l.Root != "" {
		prefix = l.Root + "/"
	}
	var files []SourceFile
	for _, e := range entries {
		if e.Type != "blob" || !strings.HasPrefix(e.Path, prefix) || !isMarkdownFile(e.Path) {
			continue
		}
		rel := strings.TrimPrefix(e.Path, prefix)
		if first, _, _ := strings.Cut(rel, "/"); l.PrivateSegment != "" && first == l.PrivateSegment {
			continue
		}
		if strings.HasPrefix(path.Base(e.Path), ".") {
			continue
		}
		sourcePath := e.Path
		files = append(files, SourceFile{
			Path: sourcePath,
			Read: func(ctx context.Context) ([]byte, error) {
				if l.Reader == nil {
					return nil, nil
				}
				return l.Reader.ReadDocument(ctx, sourcePath, ref)
			},
		})
	}
	return files, nil
}
