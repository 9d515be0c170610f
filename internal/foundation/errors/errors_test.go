package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "config.yaml" {
			t.Errorf("expected context file=config.yaml, got %v", file)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if err.CanRetry() {
			t.Error("expected config error to not be retryable")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Detection through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("fetch: %w", NetworkError("upstream failed").Build())
		if !HasCategory(err, CategoryNetwork) {
			t.Error("expected wrapped error to expose network category")
		}
		if !IsRetryable(err) {
			t.Error("expected network error to be retryable")
		}
	})
}

func TestSentinelMatching(t *testing.T) {
	sentinel := NotFoundError("document not found").Build()
	derived := sentinel.WithContext("source_path", "docs/x.md")

	if !errors.Is(derived, sentinel) {
		t.Fatal("expected derived error to match sentinel")
	}
	if _, ok := sentinel.Context().Get("source_path"); ok {
		t.Fatal("sentinel context must not be mutated by WithContext")
	}
	if errors.Is(derived, NotFoundError("asset not found").Build()) {
		t.Fatal("different messages must not match")
	}
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, CategoryNetwork, "network failure").
		Warning().
		Retryable().
		WithContext("host", "example.com").
		Build()

	if err.Severity() != SeverityWarning {
		t.Errorf("expected severity %s, got %s", SeverityWarning, err.Severity())
	}
	if err.RetryStrategy() != RetryBackoff {
		t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
	}
	if !errors.Is(err, originalErr) {
		t.Error("expected error to wrap original error")
	}
	if got := err.Error(); got != "[network:warning] network failure: original error" {
		t.Errorf("unexpected error string %q", got)
	}
}

func TestErrorContext(t *testing.T) {
	var ctx ErrorContext
	ctx = ctx.Set("a", 1)
	merged := ctx.Merge(ErrorContext{"b": "two"})

	if v, _ := merged.Get("a"); v != 1 {
		t.Errorf("expected a=1, got %v", v)
	}
	if s, ok := merged.GetString("b"); !ok || s != "two" {
		t.Errorf("expected b=two, got %v", s)
	}
	if _, ok := merged.GetString("a"); ok {
		t.Error("expected non-string lookup to fail")
	}
}
