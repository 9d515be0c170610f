package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySlug        = "slug"
	KeyRef         = "ref"
	KeySourcePath  = "source_path"
	KeyPath        = "path"
	KeyPrefix      = "prefix"
	KeyCacheKind   = "cache_kind"
	KeyEntries     = "entries"
	KeyMode        = "mode"
	KeyURL         = "url"
	KeyMethod      = "method"
	KeyStatus      = "status"
	KeyRequestID   = "request_id"
	KeyUserAgent   = "user_agent"
	KeyRemoteAddr  = "remote_addr"
	KeyEvent       = "event"
	KeyAttempt     = "attempt"
	KeyDurationMS  = "duration_ms"
	KeyContentLen  = "content_length"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Slug(s string) slog.Attr           { return slog.String(KeySlug, s) }
func Ref(r string) slog.Attr            { return slog.String(KeyRef, r) }
func SourcePath(p string) slog.Attr     { return slog.String(KeySourcePath, p) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Prefix(p string) slog.Attr         { return slog.String(KeyPrefix, p) }
func CacheKind(k string) slog.Attr      { return slog.String(KeyCacheKind, k) }
func Entries(n int) slog.Attr           { return slog.Int(KeyEntries, n) }
func Mode(m string) slog.Attr           { return slog.String(KeyMode, m) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr         { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func RequestID(id string) slog.Attr     { return slog.String(KeyRequestID, id) }
func UserAgent(ua string) slog.Attr     { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr     { return slog.String(KeyRemoteAddr, a) }
func Event(e string) slog.Attr          { return slog.String(KeyEvent, e) }
func Attempt(n int) slog.Attr           { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func ContentLength(n int64) slog.Attr   { return slog.Int64(KeyContentLen, n) }
func Error(err error) slog.Attr {
	if err == nil { return slog.String(KeyError, "") }
	return slog.String(KeyError, err.Error())
}
