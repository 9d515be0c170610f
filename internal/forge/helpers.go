package forge

import (
	"bytes"
	"io"
	"net/http"

	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
)

// maxBodyBytes bounds raw documents and assets held in memory.
const maxBodyBytes = 32 << 20

// readAll reads at most limit bytes and fails when the body is larger.
func readAll(resp *http.Response, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	if resp.ContentLength > 0 && resp.ContentLength <= limit {
		buf.Grow(int(resp.ContentLength))
	}
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, limit+1)); err != nil {
		return nil, err
	}
	if int64(buf.Len()) > limit {
		return nil, errors.NewError(errors.CategoryForge, "upstream body exceeds size limit").
			WithContext("limit_bytes", limit).
			Build()
	}
	return buf.Bytes(), nil
}
