package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    interface{}
	}{
		{"Slug", KeySlug, "guide/setup", Slug("guide/setup")},
		{"Ref", KeyRef, "main", Ref("main")},
		{"SourcePath", KeySourcePath, "docs/a.md", SourcePath("docs/a.md")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Prefix", KeyPrefix, "main:docs/", Prefix("main:docs/")},
		{"CacheKind", KeyCacheKind, "document", CacheKind("document")},
		{"Mode", KeyMode, "remote", Mode("remote")},
		{"URL", KeyURL, "http://example", URL("http://example")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
		{"UserAgent", KeyUserAgent, "ua", UserAgent("ua")},
		{"RemoteAddr", KeyRemoteAddr, "1.2.3.4", RemoteAddr("1.2.3.4")},
		{"Event", KeyEvent, "push", Event("push")},
	}

	for _, tc := range cases {
		a := tc.attr.(slog.Attr)
		if a.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, a.Key)
		}
		if got := a.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Status(200); v.Key != KeyStatus { t.Fatalf("Status key mismatch: %s", v.Key) }
	if v := Entries(3); v.Key != KeyEntries { t.Fatalf("Entries key mismatch: %s", v.Key) }
	if v := Attempt(2); v.Key != KeyAttempt { t.Fatalf("Attempt key mismatch: %s", v.Key) }
	if v := DurationMS(12.5); v.Key != KeyDurationMS { t.Fatalf("DurationMS key mismatch: %s", v.Key) }
	if v := ContentLength(1234); v.Key != KeyContentLen { t.Fatalf("ContentLength key mismatch: %s", v.Key) }
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError { t.Fatalf("Error key mismatch: %s", attr.Key) }
	if attr.Value.String() != "" { t.Fatalf("Expected empty error string, got %s", attr.Value.String()) }
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" { t.Fatalf("Expected 'err-test', got %s", attr.Value.String()) }
}

type errTest struct{}
func (e errTest) Error() string { return "err-test" }
