package fetch

import "git.home.luguber.info/inful/docmirror/internal/foundation/errors"

var (
	// ErrDocumentNotFound is returned when a document does not exist at the requested ref.
	ErrDocumentNotFound = errors.NotFoundError("document not found").Info().Build()
	// ErrAssetNotFound is returned when an asset does not exist at the requested ref.
	ErrAssetNotFound = errors.NotFoundError("asset not found").Info().Build()
)
