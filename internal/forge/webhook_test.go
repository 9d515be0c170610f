package forge

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateSignature(t *testing.T) {
	secret := "test-secret-key"
	payload := []byte(`{"ref":"refs/heads/main","repository":{"full_name":"acme/handbook"}}`)

	require.True(t, ValidateSignature(payload, Sign(payload, secret), secret))
	require.False(t, ValidateSignature(payload, "sha256=invalid-signature", secret))
	require.False(t, ValidateSignature(payload, "", secret))
	require.False(t, ValidateSignature(payload, Sign(payload, secret), ""))
	require.False(t, ValidateSignature(payload, Sign(payload, "other"), secret))

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(payload)
	require.True(t, ValidateSignature(payload, "sha1="+hex.EncodeToString(mac.Sum(nil)), secret))
}

func TestParsePushEvent(t *testing.T) {
	ev, err := ParsePushEvent([]byte(`{
		"ref": "refs/heads/main",
		"after": "deadbeef",
		"repository": {"full_name": "acme/handbook"},
		"commits": [
			{"added": ["docs/new.md"], "modified": ["docs/intro.md"]},
			{"modified": ["docs/intro.md"], "removed": ["docs/old.md"]}
		]
	}`))
	require.NoError(t, err)
	require.Equal(t, "main", ev.Branch)
	require.Equal(t, "deadbeef", ev.After)
	require.Equal(t, "acme/handbook", ev.Repository)
	require.Equal(t, []string{"docs/new.md", "docs/intro.md", "docs/old.md"}, ev.Paths)
}

func TestParsePushEvent_Refs(t *testing.T) {
	ev, err := ParsePushEvent([]byte(`{"ref":"refs/tags/v1.0"}`))
	require.NoError(t, err)
	require.Empty(t, ev.Branch)

	ev, err = ParsePushEvent([]byte(`{"ref":"main"}`))
	require.NoError(t, err)
	require.Equal(t, "main", ev.Branch)

	_, err = ParsePushEvent([]byte(`{}`))
	require.Error(t, err)
	_, err = ParsePushEvent([]byte(`not json`))
	require.Error(t, err)
}
