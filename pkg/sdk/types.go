package sdk

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Base attribute keys present on every element
const (
	FieldID          = "id"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
	FieldName        = "name"
	FieldDescription = "description"
	FieldSupertype   = "supertype"
	FieldSubtype     = "subtype"
	FieldImageURL    = "image_url"
	FieldWorld       = "world"
)

// BaseFields lists the attributes shared by all element types
var BaseFields = []string{
	FieldID,
	FieldCreatedAt,
	FieldUpdatedAt,
	FieldName,
	FieldDescription,
	FieldSupertype,
	FieldSubtype,
	FieldImageURL,
	FieldWorld,
}

// Element is one world-building record. Attributes specific to an element
// type live in Fields and are flattened into the same JSON object.
type Element struct {
	ID          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string
	Description string
	Supertype   string
	Subtype     string
	ImageURL    string
	World       string
	Fields      map[string]any

	// raw keeps server values of base attributes that the typed fields
	// cannot hold exactly, so they are written back unchanged
	raw map[string]any
}

// Filters are extra query parameters for List. Nil values are not sent and
// list values are joined with commas.
type Filters map[string]any

// Field returns a base or custom attribute by its wire name
func (e *Element) Field(name string) (any, bool) {
	m := e.ToMap()
	v, ok := m[name]
	return v, ok
}

// Set assigns a base or custom attribute by its wire name
func (e *Element) Set(name string, value any) {
	if isBaseField(name) {
		e.setBase(name, value)
		return
	}
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[name] = value
}

func (e *Element) setBase(name string, value any) {
	switch name {
	case FieldID:
		e.ID = stringValue(value)
	case FieldName:
		e.Name = stringValue(value)
	case FieldDescription:
		e.Description = stringValue(value)
	case FieldSupertype:
		e.Supertype = stringValue(value)
	case FieldSubtype:
		e.Subtype = stringValue(value)
	case FieldImageURL:
		e.ImageURL = stringValue(value)
	case FieldWorld:
		e.World = stringValue(value)
	case FieldCreatedAt:
		e.CreatedAt = timeValue(value)
	case FieldUpdatedAt:
		e.UpdatedAt = timeValue(value)
	}

	if exactBaseValue(name, value) {
		delete(e.raw, name)
		return
	}
	if e.raw == nil {
		e.raw = make(map[string]any)
	}
	e.raw[name] = value
}

// baseValue returns the typed value of a base attribute
func (e *Element) baseValue(name string) any {
	switch name {
	case FieldID:
		return e.ID
	case FieldName:
		return e.Name
	case FieldDescription:
		return e.Description
	case FieldSupertype:
		return e.Supertype
	case FieldSubtype:
		return e.Subtype
	case FieldImageURL:
		return e.ImageURL
	case FieldWorld:
		return e.World
	case FieldCreatedAt:
		return e.CreatedAt
	case FieldUpdatedAt:
		return e.UpdatedAt
	}
	return nil
}

// rawValue returns the server value of a base attribute while the typed
// field still holds what was decoded from it
func (e *Element) rawValue(name string) (any, bool) {
	value, ok := e.raw[name]
	if !ok {
		return nil, false
	}
	switch current := e.baseValue(name).(type) {
	case time.Time:
		if !current.Equal(timeValue(value)) {
			return nil, false
		}
	case string:
		if current != stringValue(value) {
			return nil, false
		}
	}
	return value, true
}

// Clone returns a shallow copy; the Fields map is copied, its values are not
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := *e
	if e.Fields != nil {
		c.Fields = maps.Clone(e.Fields)
	}
	if e.raw != nil {
		c.raw = maps.Clone(e.raw)
	}
	return &c
}

// ToMap flattens the element into its wire representation
func (e *Element) ToMap() map[string]any {
	m := make(map[string]any, len(e.Fields)+len(BaseFields))
	for k, v := range e.Fields {
		m[k] = v
	}
	putString(m, FieldID, e.ID)
	putString(m, FieldName, e.Name)
	putString(m, FieldDescription, e.Description)
	putString(m, FieldSupertype, e.Supertype)
	putString(m, FieldSubtype, e.Subtype)
	putString(m, FieldImageURL, e.ImageURL)
	putString(m, FieldWorld, e.World)
	if !e.CreatedAt.IsZero() {
		m[FieldCreatedAt] = e.CreatedAt.Format(time.RFC3339Nano)
	}
	if !e.UpdatedAt.IsZero() {
		m[FieldUpdatedAt] = e.UpdatedAt.Format(time.RFC3339Nano)
	}
	for _, name := range BaseFields {
		if value, ok := e.rawValue(name); ok {
			m[name] = value
		}
	}
	return m
}

// ElementFromMap builds an element from its wire representation. Base
// values the typed fields cannot hold exactly, such as null, "" or a
// timestamp in another layout, are kept and written back by ToMap.
func ElementFromMap(m map[string]any) *Element {
	e := &Element{}
	for k, v := range m {
		e.Set(k, v)
	}
	return e
}

func (e *Element) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToMap())
}

func (e *Element) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*e = *ElementFromMap(m)
	return nil
}

func isBaseField(name string) bool {
	for _, f := range BaseFields {
		if f == name {
			return true
		}
	}
	return false
}

func putString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}

// exactBaseValue reports whether ToMap renders the typed form of value as
// value itself
func exactBaseValue(name string, value any) bool {
	switch name {
	case FieldCreatedAt, FieldUpdatedAt:
		switch v := value.(type) {
		case time.Time:
			return true
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, v)
			return err == nil && parsed.Format(time.RFC3339Nano) == v
		}
		return false
	default:
		v, ok := value.(string)
		return ok && v != ""
	}
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func timeValue(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}
		}
		return parsed
	default:
		return time.Time{}
	}
}
