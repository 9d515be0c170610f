package forge

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
)

func TestReadAll_WithinLimit(t *testing.T) {
	resp := &http.Response{Body: io.NopCloser(strings.NewReader("0123456789")), ContentLength: 10}
	body, err := readAll(resp, 10)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(body))
}

func TestReadAll_OversizedBodyFails(t *testing.T) {
	resp := &http.Response{Body: io.NopCloser(strings.NewReader("0123456789x")), ContentLength: -1}
	body, err := readAll(resp, 10)
	require.Error(t, err)
	require.Nil(t, body)
	require.True(t, errors.HasCategory(err, errors.CategoryForge))
	require.False(t, errors.IsRetryable(err))
}
