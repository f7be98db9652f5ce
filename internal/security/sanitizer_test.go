package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSanitizer_SanitizeString(t *testing.T) {
	ts := NewTextSanitizer(DefaultSanitizerConfig())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Silverkeep", "Silverkeep"},
		{"markup", "<b>Silver</b>keep", "Silverkeep"},
		{"script", "Aria<script>alert(1)</script>", "Aria"},
		{"entities", "Salt &amp; Iron", "Salt & Iron"},
		{"ampersand", "Salt & Iron", "Salt & Iron"},
		{"control characters", "Aria\x1b[31m\x07", "Aria[31m"},
		{"keeps newlines", "line one\nline two\tend", "line one\nline two\tend"},
		{"trims", "  spaced  ", "spaced"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ts.SanitizeString(tt.input))
		})
	}
}

func TestTextSanitizer_Truncates(t *testing.T) {
	config := DefaultSanitizerConfig()
	config.MaxStringLength = 5
	ts := NewTextSanitizer(config)

	assert.Equal(t, "Silve…", ts.SanitizeString("Silverkeep"))
	assert.Equal(t, "Ärzte…", ts.SanitizeString("Ärztekammer"))
	assert.Equal(t, "short", ts.SanitizeString("short"))
}

func TestTextSanitizer_Disabled(t *testing.T) {
	ts := NewTextSanitizer(SanitizerConfig{})
	assert.Equal(t, "<b>raw</b>", ts.SanitizeString("<b>raw</b>"))
}

func TestTextSanitizer_SanitizeValue(t *testing.T) {
	ts := NewTextSanitizer(DefaultSanitizerConfig())

	value := map[string]any{
		"name":   "<i>Aria</i>",
		"level":  3,
		"tags":   []string{"<b>brave</b>", "loyal"},
		"nested": map[string]any{"motto": "<u>Onward</u>"},
		"alive":  true,
		"none":   nil,
	}

	got, ok := ts.SanitizeValue(value).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Aria", got["name"])
	assert.Equal(t, 3, got["level"])
	assert.Equal(t, []any{"brave", "loyal"}, got["tags"])
	assert.Equal(t, map[string]any{"motto": "Onward"}, got["nested"])
	assert.Equal(t, true, got["alive"])
	assert.Nil(t, got["none"])
}

func TestTextSanitizer_Limits(t *testing.T) {
	config := DefaultSanitizerConfig()
	config.MaxArrayLength = 2
	config.MaxObjectDepth = 1
	ts := NewTextSanitizer(config)

	list := ts.SanitizeValue([]any{"a", "b", "c"}).([]any)
	assert.Len(t, list, 2)

	deep := ts.SanitizeValue(map[string]any{
		"a": map[string]any{"b": map[string]any{"c": "d"}},
	}).(map[string]any)
	inner := deep["a"].(map[string]any)
	assert.Nil(t, inner["b"])
}

func TestTextSanitizer_SanitizeURL(t *testing.T) {
	ts := NewTextSanitizer(DefaultSanitizerConfig())

	got, err := ts.SanitizeURL(" https://example.com/map.png ")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/map.png", got)

	_, err = ts.SanitizeURL("javascript:alert(1)")
	assert.Error(t, err)

	_, err = ts.SanitizeURL("file:///etc/passwd")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "file"))

	empty, err := ts.SanitizeURL("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
