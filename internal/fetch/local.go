package fetch

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docmirror/internal/docmodel"
	derrors "git.home.luguber.info/inful/docmirror/internal/foundation/errors"
	"git.home.luguber.info/inful/docmirror/internal/frontmatter"
	"git.home.luguber.info/inful/docmirror/internal/metrics"
)

const modeLocal = "local"

// errOutsideRoot is mapped to not-found by callers so traversal attempts look
// like any other missing file.
var errOutsideRoot = derrors.ValidationError("path escapes documentation root").Build()

// localPath validates sourcePath and returns it relative to LocalBase.
func (s *Service) localPath(sourcePath string) (string, error) {
	if strings.Contains(sourcePath, "\x00") {
		return "", errOutsideRoot
	}
	clean := strings.TrimPrefix(path.Clean("/"+sourcePath), "/")
	if s.opts.Root != "" && !strings.HasPrefix(clean, s.opts.Root+"/") {
		return "", errOutsideRoot
	}
	return filepath.FromSlash(clean), nil
}

// readLocal reads sourcePath through an os.Root so symlinks cannot escape LocalBase.
func (s *Service) readLocal(ctx context.Context, sourcePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := s.localPath(sourcePath)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenInRoot(s.opts.LocalBase, rel)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	if st, statErr := f.Stat(); statErr == nil && st.IsDir() {
		return nil, fs.ErrNotExist
	}
	return io.ReadAll(f)
}

func isLocalNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, errOutsideRoot)
}

// Fingerprint returns the content fingerprint used to detect local changes.
func Fingerprint(content []byte) string {
	fm, body, had, err := frontmatter.Split(content)
	if err != nil || !had {
		return mdfp.CalculateFingerprintFromParts("", string(content))
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(fm), "\n"), string(body))
}

func (s *Service) localDocument(ctx context.Context, key, sourcePath string, cached *docmodel.CachedDocument) (*docmodel.CachedDocument, error) {
	content, err := s.readLocal(ctx, sourcePath)
	if err != nil {
		if isLocalNotFound(err) {
			s.opts.Recorder.IncFetch(modeLocal, metrics.FetchNotFound)
			return nil, ErrDocumentNotFound.WithContext("source_path", sourcePath)
		}
		s.opts.Recorder.IncFetch(modeLocal, metrics.FetchError)
		return nil, derrors.FileSystemError("failed to read document").
			WithCause(err).
			WithContext("source_path", sourcePath).
			Build()
	}

	fp := Fingerprint(content)
	if cached != nil && cached.Fingerprint == fp {
		s.opts.Recorder.IncFetch(modeLocal, metrics.FetchNotModified)
		return cached, nil
	}

	doc := docmodel.CachedDocument{
		SourcePath:  sourcePath,
		Body:        string(content),
		FetchedAt:   s.opts.Now(),
		Fingerprint: fp,
	}
	s.opts.Store.PutDocument(key, doc)
	s.opts.Recorder.IncFetch(modeLocal, metrics.FetchFresh)
	return &doc, nil
}

func (s *Service) localAsset(ctx context.Context, key, sourcePath string, cached *docmodel.CachedAsset) (*docmodel.CachedAsset, error) {
	content, err := s.readLocal(ctx, sourcePath)
	if err != nil {
		if isLocalNotFound(err) {
			s.opts.Recorder.IncFetch(modeLocal, metrics.FetchNotFound)
			return nil, ErrAssetNotFound.WithContext("source_path", sourcePath)
		}
		s.opts.Recorder.IncFetch(modeLocal, metrics.FetchError)
		return nil, derrors.FileSystemError("failed to read asset").
			WithCause(err).
			WithContext("source_path", sourcePath).
			Build()
	}

	fp := mdfp.CalculateFingerprintFromParts("", string(content))
	if cached != nil && cached.Fingerprint == fp {
		s.opts.Recorder.IncFetch(modeLocal, metrics.FetchNotModified)
		return cached, nil
	}

	asset := docmodel.CachedAsset{
		SourcePath:  sourcePath,
		Bytes:       content,
		ContentType: contentType(sourcePath, "", content),
		FetchedAt:   s.opts.Now(),
		Fingerprint: fp,
	}
	s.opts.Store.PutAsset(key, asset)
	s.opts.Recorder.IncFetch(modeLocal, metrics.FetchFresh)
	return &asset, nil
}

// contentType prefers the file extension, then a non-generic upstream header,
// then content sniffing.
func contentType(sourcePath, header string, content []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(sourcePath))); ct != "" {
		return ct
	}
	if header != "" && !strings.HasPrefix(header, "text/plain") {
		return header
	}
	return http.DetectContentType(content)
}
