package sdk

import (
	"context"
	"slices"
	"strings"
)

// ResolvedSuffix is appended to a reference field name to hold its
// resolved elements
const ResolvedSuffix = "_resolved"

// ReferenceTable maps a reference field name to the element type it points to
type ReferenceTable map[string]string

// DefaultReferenceTable returns the built-in field mappings. Fields whose
// names do not follow the suffix convention are listed here.
func DefaultReferenceTable() ReferenceTable {
	return ReferenceTable{
		"location_id":        "location",
		"birthplace_id":      "location",
		"parent_location_id": "location",
		"institution_id":     "institution",
		"zone_id":            "zone",
		"map_id":             "map",
		"species_ids":        "species",
		"abilities_ids":      "ability",
		"ability_ids":        "ability",
		"families_ids":       "family",
		"family_ids":         "family",
		"phenomena_ids":      "phenomenon",
		"traits_ids":         "trait",
		"languages_ids":      "language",
		"characters_ids":     "character",
		"character_ids":      "character",
	}
}

// TargetType returns the element type a reference field points to. The
// table is consulted first; otherwise the type is inferred from the field
// name by dropping the "_id" suffix, or "_ids" and a trailing "s" for lists.
func (t ReferenceTable) TargetType(field string, list bool) (string, bool) {
	if elementType, ok := t[field]; ok {
		return elementType, IsElementType(elementType)
	}

	var inferred string
	if list {
		inferred = strings.TrimSuffix(strings.TrimSuffix(field, "_ids"), "s")
	} else {
		inferred = strings.TrimSuffix(field, "_id")
	}
	return inferred, IsElementType(inferred)
}

// ReferenceFields returns the fields of e that look like references, sorted
func (t ReferenceTable) ReferenceFields(e *Element) []string {
	var fields []string
	for field, value := range e.Fields {
		if strings.HasSuffix(field, ResolvedSuffix) {
			continue
		}
		ids, isList := referenceIDs(value)
		if ids == nil {
			continue
		}
		_, known := t[field]
		if known || (!isList && strings.HasSuffix(field, "_id")) || (isList && strings.HasSuffix(field, "_ids")) {
			fields = append(fields, field)
		}
	}
	slices.Sort(fields)
	return fields
}

// ReferenceFields lists the reference-like fields of an element using the
// client's reference table
func (s *ElementService) ReferenceFields(e *Element) []string {
	if e == nil {
		return nil
	}
	return s.client.references.ReferenceFields(e)
}

// ResolveReferences returns a copy of element with each named reference
// field fetched and attached under "<field>_resolved". Failures are logged
// and skipped: a broken reference never fails the call, and a list keeps
// whichever members resolved. A list field of unknown type gets an empty
// list. The input element is never modified.
func (s *ElementService) ResolveReferences(ctx context.Context, element *Element, fields ...string) *Element {
	if element == nil {
		return nil
	}

	resolved := element.Clone()

	for _, field := range fields {
		value, ok := element.Field(field)
		if !ok || value == nil {
			continue
		}

		ids, isList := referenceIDs(value)
		if ids == nil {
			continue
		}

		elementType, known := s.client.references.TargetType(field, isList)
		if !known {
			s.client.logger.Debug().
				Str("field", field).
				Str("inferred_type", elementType).
				Msg("reference field has no known element type")
			if isList {
				resolved.Set(field+ResolvedSuffix, []*Element{})
			}
			continue
		}

		if !isList {
			target, err := s.Get(ctx, elementType, ids[0])
			if err != nil {
				s.resolutionFailed(field, ids[0], err)
				continue
			}
			resolved.Set(field+ResolvedSuffix, target)
			continue
		}

		targets := make([]*Element, 0, len(ids))
		for _, id := range ids {
			target, err := s.Get(ctx, elementType, id)
			if err != nil {
				s.resolutionFailed(field, id, err)
				continue
			}
			targets = append(targets, target)
		}
		resolved.Set(field+ResolvedSuffix, targets)
	}

	return resolved
}

func (s *ElementService) resolutionFailed(field, id string, err error) {
	s.client.metrics.RecordResolutionFailure(field)
	s.client.logger.Warn().
		Err(err).
		Str("field", field).
		Str("element_id", id).
		Msg("could not resolve reference")
}

// referenceIDs extracts identifiers from a reference value. The bool
// reports whether the value is a list. Non-string list members are skipped.
func referenceIDs(value any) ([]string, bool) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil, false
		}
		return []string{v}, false
	case []string:
		return slices.DeleteFunc(slices.Clone(v), func(id string) bool { return id == "" }), true
	case []any:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if id, ok := item.(string); ok && id != "" {
				ids = append(ids, id)
			}
		}
		return ids, true
	default:
		return nil, false
	}
}

// PlainMap is ToMap with resolved references flattened too, for encoders
// that do not know about Element
func (e *Element) PlainMap() map[string]any {
	if e == nil {
		return nil
	}
	m := e.ToMap()
	for key, value := range m {
		switch v := value.(type) {
		case *Element:
			m[key] = v.PlainMap()
		case []*Element:
			list := make([]map[string]any, 0, len(v))
			for _, item := range v {
				list = append(list, item.PlainMap())
			}
			m[key] = list
		}
	}
	return m
}
