package logger

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactSensitiveData(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Anthropic key",
			input: "key=sk-ant-" + strings.Repeat("x", 40),
			want:  "key=sk-a...[REDACTED]",
		},
		{
			name:  "Bearer token",
			input: "Authorization: Bearer abc123def456",
			want:  "Authorization: Bearer [REDACTED]",
		},
		{
			name:  "Apify token",
			input: "token apify_api_aaaaaaaaaaaaaaaaaaaaaaaa",
			want:  "token apif...[REDACTED]",
		},
		{
			name:  "no sensitive data",
			input: "plain message",
			want:  "plain message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactSensitiveData(tt.input))
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	assert.Equal(t, slog.LevelDebug, LevelFromEnv())

	t.Setenv("LOG_LEVEL", "warning")
	assert.Equal(t, slog.LevelWarn, LevelFromEnv())

	t.Setenv("LOG_LEVEL", "nonsense")
	assert.Equal(t, slog.LevelInfo, LevelFromEnv())
}
