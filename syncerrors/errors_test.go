package syncerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestFetchError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("dial timeout")
		err := &FetchError{
			URL:        "http://svc/swagger-resources",
			StatusCode: 502,
			Message:    "discovery failed",
			Cause:      cause,
		}

		msg := err.Error()
		if msg != "fetch failed for http://svc/swagger-resources (status 502): discovery failed: dial timeout" {
			t.Errorf("unexpected error message: %s", msg)
		}
	})

	t.Run("Error message with minimal fields", func(t *testing.T) {
		err := &FetchError{}
		if err.Error() != "fetch failed" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("underlying")
		err := &FetchError{Cause: cause}
		//nolint:errorlint // testing pointer identity
		if unwrapped := err.Unwrap(); unwrapped != cause {
			t.Error("Unwrap should return cause")
		}
	})

	t.Run("Is matches sentinel", func(t *testing.T) {
		err := fmt.Errorf("attempt: %w", &FetchError{URL: "http://svc"})
		if !errors.Is(err, ErrUpstreamUnreachable) {
			t.Error("FetchError should match ErrUpstreamUnreachable")
		}
		if errors.Is(err, ErrMalformedResponse) {
			t.Error("FetchError should not match ErrMalformedResponse")
		}
	})
}

func TestMalformedResponseError(t *testing.T) {
	t.Run("body preview is truncated", func(t *testing.T) {
		body := make([]byte, 2000)
		for i := range body {
			body[i] = 'x'
		}
		err := NewMalformedResponse("http://svc", "JSON array", body, nil)
		if len(err.BodyPreview) > maxBodyPreview+3 {
			t.Errorf("preview not truncated, length %d", len(err.BodyPreview))
		}
	})

	t.Run("Is matches sentinel", func(t *testing.T) {
		err := NewMalformedResponse("http://svc", "JSON object", []byte("<html>"), nil)
		if !errors.Is(err, ErrMalformedResponse) {
			t.Error("should match ErrMalformedResponse")
		}
	})

	t.Run("message includes expectation and preview", func(t *testing.T) {
		err := NewMalformedResponse("http://svc", "JSON array", []byte("<html>"), nil)
		msg := err.Error()
		want := `malformed response from http://svc: expected JSON array: body "<html>"`
		if msg != want {
			t.Errorf("unexpected error message: %s", msg)
		}
	})
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Key: "SWAGSYNC_APIFOX_TOKEN", Message: "not set"}
	if err.Error() != "configuration error for SWAGSYNC_APIFOX_TOKEN: not set" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
	if !errors.Is(err, ErrConfigMissing) {
		t.Error("ConfigError should match ErrConfigMissing")
	}
}

func TestValidationError(t *testing.T) {
	t.Run("message", func(t *testing.T) {
		err := &ValidationError{Field: "projectId", Message: "required"}
		if err.Error() != "validation error for projectId: required" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("Is through wrapping", func(t *testing.T) {
		err := fmt.Errorf("diff failed: %w", &ValidationError{Field: "before", Message: "not JSON"})
		if !errors.Is(err, ErrValidation) {
			t.Error("should match ErrValidation through wrapping")
		}
	})
}
