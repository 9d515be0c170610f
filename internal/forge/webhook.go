package forge

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"git.home.luguber.info/inful/docmirror/internal/foundation/errors"
)

// SignatureHeader is the header GitHub uses for the HMAC-SHA256 payload signature.
const SignatureHeader = "X-Hub-Signature-256"

// ValidateSignature validates a GitHub webhook signature for payload.
func ValidateSignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	// Preferred SHA-256 format: sha256=<hash>
	if expected, ok := strings.CutPrefix(signature, "sha256="); ok {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(payload)
		calc := hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(expected), []byte(calc))
	}

	// Legacy X-Hub-Signature format: sha1=<hash>
	if expected, ok := strings.CutPrefix(signature, "sha1="); ok {
		mac := hmac.New(sha1.New, []byte(secret))
		mac.Write(payload)
		calc := hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(expected), []byte(calc))
	}

	return false
}

// Sign returns the sha256=<hex> signature of payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// PushEvent is the subset of a GitHub push payload the invalidation trigger needs.
type PushEvent struct {
	Ref        string
	Branch     string // Ref without refs/heads/, empty for tags
	After      string
	Repository string // owner/repo
	Paths      []string
}

type githubPushEvent struct {
	Ref        string `json:"ref"`
	After      string `json:"after"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Commits []struct {
		Added    []string `json:"added"`
		Modified []string `json:"modified"`
		Removed  []string `json:"removed"`
	} `json:"commits"`
}

// ParsePushEvent decodes a push payload. Only the ref field is required.
func ParsePushEvent(payload []byte) (*PushEvent, error) {
	var raw githubPushEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.ValidationError("malformed push payload").WithCause(err).Build()
	}
	if raw.Ref == "" {
		return nil, errors.ValidationError("push payload has no ref").Build()
	}

	ev := &PushEvent{
		Ref:        raw.Ref,
		After:      raw.After,
		Repository: raw.Repository.FullName,
	}
	if b, ok := strings.CutPrefix(raw.Ref, "refs/heads/"); ok {
		ev.Branch = b
	} else if !strings.HasPrefix(raw.Ref, "refs/") {
		ev.Branch = raw.Ref
	}

	seen := make(map[string]struct{})
	for _, c := range raw.Commits {
		for _, group := range [][]string{c.Added, c.Modified, c.Removed} {
			for _, p := range group {
				if _, dup := seen[p]; dup {
					continue
				}
				seen[p] = struct{}{}
				ev.Paths = append(ev.Paths, p)
			}
		}
	}
	return ev, nil
}
