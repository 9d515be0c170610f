package errors

import (
	stdErrors "errors"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{stdErrors.New("plain"), 1},
		{ValidationError("bad flag").Build(), 2},
		{NotFoundError("no such slug").Build(), 3},
		{ConfigError("bad config").Build(), 7},
		{NetworkError("upstream").Build(), 8},
	}
	for _, tc := range cases {
		if got := adapter.ExitCodeFor(tc.err); got != tc.want {
			t.Errorf("ExitCodeFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := WrapError(stdErrors.New("cause"), CategoryConfig, "bad config").Build()
	if got := NewCLIErrorAdapter(false, nil).FormatError(err); got != "Error: bad config" {
		t.Errorf("unexpected terse format %q", got)
	}
	if got := NewCLIErrorAdapter(true, nil).FormatError(err); got != err.Error() {
		t.Errorf("unexpected verbose format %q", got)
	}
}
