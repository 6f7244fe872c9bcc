package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandlerMasking tests attribute sanitization.
func TestSecureHandlerMasking(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		key    string
		value  string
		masked bool
	}{
		{"api_key by key name", "api_key", "gsk_abcdefghijklmnop", true},
		{"llm_api_key by key name", "llm_api_key", "whatever", true},
		{"authorization is case-insensitive", "Authorization", "some-value", true},
		{"keyword containment matches my_password", "my_password", "hunter2", true},
		{"groq key by value format", "request_header", "gsk_abcdefghijklmnopqrst", true},
		{"openai-style key by value format", "request_header", "sk-abcdefghijklmnopqrst", true},
		{"bearer token by value format", "header", "Bearer abc.def.ghi", true},
		{"jwt by value format", "header", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig", true},
		{"screenshot digest stays readable", "digest", strings.Repeat("ab", 32), false},
		{"plain url stays readable", "url", "http://localhost:8080/feedback", false},
		{"page key stays readable", "page_key", "feedback_widget", false},
	}

	for _, tc := range testCases {

		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

			logger.Info("test", tc.key, tc.value)
			out := buf.String()

			if tc.masked {
				if !strings.Contains(out, MaskValue) {
					t.Errorf("expected %q to be masked, got %q", tc.value, out)
				}
				if strings.Contains(out, tc.value) {
					t.Errorf("sensitive value %q leaked into output", tc.value)
				}
			} else {
				if strings.Contains(out, MaskValue) {
					t.Errorf("value %q should not be masked, got %q", tc.value, out)
				}
			}
		})
	}
}

// TestSecureHandlerGroups tests that grouped attributes are sanitized.
func TestSecureHandlerGroups(t *testing.T) {
	t.Parallel()

	t.Run("nested group attributes are masked", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

		logger.Info("request",
			slog.Group("headers",
				slog.String("authorization", "Bearer abc"),
				slog.String("content-type", "application/json"),
			),
		)
		out := buf.String()

		if !strings.Contains(out, MaskValue) {
			t.Error("grouped authorization header should be masked")
		}
		if !strings.Contains(out, "application/json") {
			t.Error("non-sensitive group attribute should survive")
		}
	})

	t.Run("WithAttrs sanitizes pre-bound attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

		logger.With("api_key", "gsk_abcdefghijklmnop").Info("bound")
		out := buf.String()

		if strings.Contains(out, "gsk_") {
			t.Errorf("pre-bound api_key leaked: %q", out)
		}
	})
}

// TestNewSecureLogger tests logger construction and level gating.
func TestNewSecureLogger(t *testing.T) {
	t.Parallel()

	t.Run("non-verbose suppresses debug and info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)

		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")

		out := buf.String()
		if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
			t.Error("non-verbose logger should suppress debug and info")
		}
		if !strings.Contains(out, "warn message") {
			t.Error("warnings should always be logged")
		}
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)

		logger.Debug("debug message")
		if !strings.Contains(buf.String(), "debug message") {
			t.Error("verbose logger should log debug messages")
		}
	})

	t.Run("JSON logger emits JSON with masking", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureJSONLogger(&buf, true)

		logger.Info("test", "token", "abc123")
		out := buf.String()

		if !strings.Contains(out, `"msg":"test"`) {
			t.Errorf("expected JSON output, got %q", out)
		}
		if !strings.Contains(out, MaskValue) {
			t.Error("token should be masked in JSON output")
		}
	})
}
