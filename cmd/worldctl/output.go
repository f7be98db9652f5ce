package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sumandas0/worldkit/internal/security"
	"github.com/sumandas0/worldkit/pkg/sdk"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// printer renders command results in the selected format. Text output is
// sanitized because element text comes from other users of the world.
type printer struct {
	out       io.Writer
	format    string
	sanitizer *security.TextSanitizer
}

func newPrinter(out io.Writer, format string) (*printer, error) {
	switch format {
	case outputText, outputJSON, outputYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
	return &printer{
		out:       out,
		format:    format,
		sanitizer: security.NewTextSanitizer(security.DefaultSanitizerConfig()),
	}, nil
}

// structured writes v as JSON or YAML. It reports false for text output.
func (p *printer) structured(v any) (bool, error) {
	switch p.format {
	case outputJSON:
		encoder := json.NewEncoder(p.out)
		encoder.SetIndent("", "  ")
		return true, encoder.Encode(v)
	case outputYAML:
		encoder := yaml.NewEncoder(p.out)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return true, err
		}
		return true, encoder.Close()
	}
	return false, nil
}

func (p *printer) element(element *sdk.Element) error {
	m := element.PlainMap()
	if done, err := p.structured(m); done {
		return err
	}

	p.heading(element)
	for _, key := range orderedKeys(m) {
		switch key {
		case sdk.FieldID, sdk.FieldName:
			continue
		}
		value := p.text(m[key])
		if key == sdk.FieldImageURL {
			value = p.link(m[key])
		}
		fmt.Fprintf(p.out, "  %s: %s\n", key, value)
	}
	return nil
}

// link renders a URL attribute, hiding anything but http and https links
func (p *printer) link(value any) string {
	raw, ok := value.(string)
	if !ok || raw == "" {
		return p.text(value)
	}
	safe, err := p.sanitizer.SanitizeURL(raw)
	if err != nil {
		return "(unsafe link hidden)"
	}
	return safe
}

func (p *printer) elements(elementType string, elements []*sdk.Element) error {
	plain := make([]map[string]any, 0, len(elements))
	for _, element := range elements {
		plain = append(plain, element.PlainMap())
	}
	if done, err := p.structured(plain); done {
		return err
	}

	if len(elements) == 0 {
		fmt.Fprintf(p.out, "No %s found.\n", strings.ToLower(sdk.Label(elementType)))
		return nil
	}
	for _, element := range elements {
		line := p.sanitizer.SanitizeString(element.Name)
		if element.Supertype != "" {
			line += " [" + p.sanitizer.SanitizeString(element.Supertype) + "]"
		}
		fmt.Fprintf(p.out, "%s  %s\n", element.ID, line)
	}
	fmt.Fprintf(p.out, "%d %s\n", len(elements), strings.ToLower(sdk.Label(elementType)))
	return nil
}

func (p *printer) counts(counts map[string]int) error {
	if done, err := p.structured(counts); done {
		return err
	}

	total := 0
	for _, elementType := range sdk.ElementTypes {
		n, ok := counts[elementType]
		if !ok {
			fmt.Fprintf(p.out, "%-14s %s\n", sdk.Label(elementType), "?")
			continue
		}
		total += n
		fmt.Fprintf(p.out, "%-14s %d\n", sdk.Label(elementType), n)
	}
	fmt.Fprintf(p.out, "%-14s %d\n", "Total", total)
	return nil
}

func (p *printer) types() error {
	type typeInfo struct {
		Name       string   `json:"name" yaml:"name"`
		Label      string   `json:"label" yaml:"label"`
		Icon       string   `json:"icon" yaml:"icon"`
		Supertypes []string `json:"supertypes,omitempty" yaml:"supertypes,omitempty"`
	}
	infos := make([]typeInfo, 0, len(sdk.ElementTypes))
	for _, name := range sdk.ElementTypes {
		infos = append(infos, typeInfo{
			Name:       name,
			Label:      sdk.Label(name),
			Icon:       sdk.Icon(name),
			Supertypes: sdk.CommonSupertypes[name],
		})
	}
	if done, err := p.structured(infos); done {
		return err
	}

	for _, info := range infos {
		fmt.Fprintf(p.out, "%-12s %s\n", info.Name, info.Label)
	}
	return nil
}

func (p *printer) message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if done, err := p.structured(map[string]string{"message": msg}); done {
		return err
	}
	_, err := fmt.Fprintln(p.out, msg)
	return err
}

func (p *printer) heading(element *sdk.Element) {
	fmt.Fprintf(p.out, "%s (%s)\n", p.sanitizer.SanitizeString(element.Name), element.ID)
}

// text renders a field value on one line
func (p *printer) text(value any) string {
	if list, ok := value.([]map[string]any); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, p.text(item))
		}
		return strings.Join(parts, ", ")
	}

	switch v := p.sanitizer.SanitizeValue(value).(type) {
	case nil:
		return "-"
	case string:
		return v
	case map[string]any:
		if name, ok := v[sdk.FieldName]; ok {
			return fmt.Sprintf("%v (%v)", name, v[sdk.FieldID])
		}
		return fmt.Sprint(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, p.text(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// orderedKeys puts base attributes first, then the rest alphabetically
func orderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for _, field := range sdk.BaseFields {
		if _, ok := m[field]; ok {
			keys = append(keys, field)
		}
	}
	extra := make([]string, 0, len(m))
	for key := range m {
		if !slices.Contains(sdk.BaseFields, key) {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}
