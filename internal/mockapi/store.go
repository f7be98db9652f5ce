package mockapi

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sumandas0/worldkit/pkg/sdk"
	"github.com/sumandas0/worldkit/pkg/utils"
)

// Record is an element as the fake API stores it
type Record = map[string]any

// Store keeps elements in memory, per type in insertion order
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string]Record
	order   map[string][]string
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]map[string]Record),
		order:   make(map[string][]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// List returns copies of the records of elementType matching every filter.
// name__icontains matches names case-insensitively; other keys match exactly.
func (s *Store) List(elementType string, filters map[string]string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.order[elementType]))
	for _, id := range s.order[elementType] {
		record := s.records[elementType][id]
		if matches(record, filters) {
			out = append(out, maps.Clone(record))
		}
	}
	return out
}

func (s *Store) Get(elementType, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[elementType][id]
	if !ok {
		return nil, utils.NewAppError(utils.CodeNotFound, elementType+" not found", utils.ErrNotFound)
	}
	return maps.Clone(record), nil
}

// Create stores a new record. It requires a name, assigns an id when none
// is given and sets both timestamps.
func (s *Store) Create(elementType string, record Record) (Record, error) {
	if name, _ := record[sdk.FieldName].(string); name == "" {
		return nil, utils.NewAppError(utils.CodeValidation, "name: this field is required", utils.ErrValidation).
			WithDetail("field", sdk.FieldName)
	}

	record = maps.Clone(record)
	id, _ := record[sdk.FieldID].(string)
	if id == "" {
		id = sdk.NewID()
		record[sdk.FieldID] = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[elementType][id]; exists {
		return nil, utils.NewAppError(utils.CodeAlreadyExists, "id: element with this id already exists", utils.ErrAlreadyExists)
	}

	now := s.now().Format(time.RFC3339Nano)
	record[sdk.FieldCreatedAt] = now
	record[sdk.FieldUpdatedAt] = now

	if s.records[elementType] == nil {
		s.records[elementType] = make(map[string]Record)
	}
	s.records[elementType][id] = record
	s.order[elementType] = append(s.order[elementType], id)

	return maps.Clone(record), nil
}

// Replace overwrites a record, keeping its id and creation time
func (s *Store) Replace(elementType, id string, record Record) (Record, error) {
	if name, _ := record[sdk.FieldName].(string); name == "" {
		return nil, utils.NewAppError(utils.CodeValidation, "name: this field is required", utils.ErrValidation).
			WithDetail("field", sdk.FieldName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[elementType][id]
	if !ok {
		return nil, utils.NewAppError(utils.CodeNotFound, elementType+" not found", utils.ErrNotFound)
	}

	record = maps.Clone(record)
	record[sdk.FieldID] = id
	record[sdk.FieldCreatedAt] = existing[sdk.FieldCreatedAt]
	record[sdk.FieldUpdatedAt] = s.now().Format(time.RFC3339Nano)
	s.records[elementType][id] = record

	return maps.Clone(record), nil
}

func (s *Store) Delete(elementType, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[elementType][id]; !ok {
		return utils.NewAppError(utils.CodeNotFound, elementType+" not found", utils.ErrNotFound)
	}
	delete(s.records[elementType], id)
	s.order[elementType] = slices.DeleteFunc(s.order[elementType], func(existing string) bool {
		return existing == id
	})
	return nil
}

// Seed stores records as-is, bypassing validation. Used to prepare fixtures.
func (s *Store) Seed(elementType string, records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[elementType] == nil {
		s.records[elementType] = make(map[string]Record)
	}
	for _, record := range records {
		id, _ := record[sdk.FieldID].(string)
		if id == "" {
			id = sdk.NewID()
		}
		record = maps.Clone(record)
		record[sdk.FieldID] = id
		if _, exists := s.records[elementType][id]; !exists {
			s.order[elementType] = append(s.order[elementType], id)
		}
		s.records[elementType][id] = record
	}
}

// Len returns the number of records of elementType
func (s *Store) Len(elementType string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order[elementType])
}

// Counts returns the number of records of every known element type
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int, len(sdk.ElementTypes))
	for _, elementType := range sdk.ElementTypes {
		counts[elementType] = len(s.order[elementType])
	}
	return counts
}

func matches(record Record, filters map[string]string) bool {
	for key, want := range filters {
		switch key {
		case "name__icontains":
			name, _ := record[sdk.FieldName].(string)
			if !strings.Contains(strings.ToLower(name), strings.ToLower(want)) {
				return false
			}
		default:
			value, ok := record[key]
			if !ok || value == nil || fmt.Sprint(value) != want {
				return false
			}
		}
	}
	return true
}
