package security

import (
	"fmt"
	"html"
	"net/url"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

type SanitizerConfig struct {
	Enabled         bool `yaml:"enabled" mapstructure:"enabled"`
	MaxStringLength int  `yaml:"max_string_length" mapstructure:"max_string_length"`
	MaxArrayLength  int  `yaml:"max_array_length" mapstructure:"max_array_length"`
	MaxObjectDepth  int  `yaml:"max_object_depth" mapstructure:"max_object_depth"`
}

func DefaultSanitizerConfig() SanitizerConfig {
	return SanitizerConfig{
		Enabled:         true,
		MaxStringLength: 2000,
		MaxArrayLength:  100,
		MaxObjectDepth:  5,
	}
}

// TextSanitizer turns element text received from the API into plain text
// safe to print to a terminal
type TextSanitizer struct {
	config     SanitizerConfig
	htmlPolicy *bluemonday.Policy
}

func NewTextSanitizer(config SanitizerConfig) *TextSanitizer {
	return &TextSanitizer{
		config:     config,
		htmlPolicy: bluemonday.StrictPolicy(),
	}
}

// SanitizeString strips markup and control characters and truncates long
// values with an ellipsis
func (ts *TextSanitizer) SanitizeString(input string) string {
	if !ts.config.Enabled {
		return input
	}

	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, "")
	}

	// StrictPolicy escapes what it keeps, the terminal wants the raw text back
	input = html.UnescapeString(ts.htmlPolicy.Sanitize(input))

	input = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)

	input = strings.TrimSpace(input)

	if ts.config.MaxStringLength > 0 && utf8.RuneCountInString(input) > ts.config.MaxStringLength {
		runes := []rune(input)
		input = string(runes[:ts.config.MaxStringLength]) + "…"
	}

	return input
}

// SanitizeValue sanitizes strings nested in lists and maps
func (ts *TextSanitizer) SanitizeValue(value any) any {
	return ts.sanitizeValueWithDepth(value, 0)
}

func (ts *TextSanitizer) sanitizeValueWithDepth(value any, depth int) any {
	if !ts.config.Enabled {
		return value
	}

	if ts.config.MaxObjectDepth > 0 && depth > ts.config.MaxObjectDepth {
		return nil
	}

	switch v := value.(type) {
	case string:
		return ts.SanitizeString(v)

	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return ts.sanitizeArray(out, depth)

	case []any:
		return ts.sanitizeArray(v, depth)

	case map[string]any:
		return ts.sanitizeObject(v, depth)

	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64, bool, nil:
		return v

	default:
		return ts.SanitizeString(fmt.Sprintf("%v", v))
	}
}

func (ts *TextSanitizer) sanitizeArray(arr []any, depth int) []any {
	if ts.config.MaxArrayLength > 0 && len(arr) > ts.config.MaxArrayLength {
		arr = arr[:ts.config.MaxArrayLength]
	}

	sanitized := make([]any, 0, len(arr))
	for _, item := range arr {
		sanitized = append(sanitized, ts.sanitizeValueWithDepth(item, depth+1))
	}
	return sanitized
}

func (ts *TextSanitizer) sanitizeObject(obj map[string]any, depth int) map[string]any {
	sanitized := make(map[string]any, len(obj))
	for key, value := range obj {
		sanitizedKey := ts.SanitizeString(key)
		if sanitizedKey == "" {
			continue
		}
		sanitized[sanitizedKey] = ts.sanitizeValueWithDepth(value, depth+1)
	}
	return sanitized
}

// SanitizeURL keeps http and https links and drops everything else
func (ts *TextSanitizer) SanitizeURL(rawURL string) (string, error) {
	if !ts.config.Enabled || rawURL == "" {
		return rawURL, nil
	}

	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	if !slices.Contains([]string{"http", "https"}, strings.ToLower(parsedURL.Scheme)) {
		return "", fmt.Errorf("disallowed URL scheme: %q", parsedURL.Scheme)
	}

	return parsedURL.String(), nil
}
