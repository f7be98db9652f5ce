package sdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// MinSearchLength is the shortest term Search sends to the server
const MinSearchLength = 2

// countsConcurrency bounds the parallel list calls made by Counts
const countsConcurrency = 4

// ElementService handles element operations and owns the client cache
type ElementService struct {
	client *Client
}

// List returns the elements of elementType in the caller's world, in server
// order. Every returned element refreshes its cache entry.
func (s *ElementService) List(ctx context.Context, elementType string, filters Filters) (elements []*Element, err error) {
	ctx, done := s.client.startOperation(ctx, "list", elementType, "")
	defer func() { done(err) }()

	if err := s.client.precheck(elementType); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set(FieldWorld, s.client.auth.World())
	for key, value := range filters {
		if isNil(value) {
			continue
		}
		query.Set(key, filterValue(value))
	}

	var result []*Element
	err = s.client.doJSONRequest(ctx, http.MethodGet, elementType, s.client.collectionPath(elementType), query, nil, &result, false)
	if err != nil {
		return nil, err
	}

	for _, element := range result {
		if element != nil {
			s.client.cacheElement(elementType, element.ID, element)
		}
	}

	return result, nil
}

// Get returns one element, from cache when present
func (s *ElementService) Get(ctx context.Context, elementType, id string) (element *Element, err error) {
	ctx, done := s.client.startOperation(ctx, "get", elementType, id)
	defer func() { done(err) }()

	if err := s.client.precheck(elementType); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidArgument("element id is required")
	}

	if cached, ok := s.client.cache.Get(elementType, id); ok {
		return cached.Clone(), nil
	}

	var result Element
	err = s.client.doJSONRequest(ctx, http.MethodGet, elementType, s.client.elementPath(elementType, id), nil, nil, &result, true)
	if err != nil {
		return nil, err
	}

	s.client.cacheElement(elementType, id, &result)
	return &result, nil
}

// Create sends a new element. World and ID are filled in when empty; the
// caller's element is not modified. The server's record is cached and
// returned.
func (s *ElementService) Create(ctx context.Context, elementType string, data *Element) (element *Element, err error) {
	ctx, done := s.client.startOperation(ctx, "create", elementType, "")
	defer func() { done(err) }()

	if err := s.client.precheck(elementType); err != nil {
		return nil, err
	}
	if data == nil || data.Name == "" {
		return nil, invalidArgument("name is required")
	}

	payload := data.Clone()
	if payload.World == "" {
		payload.World = s.client.auth.World()
	}
	if payload.ID == "" {
		payload.ID = NewID()
	}

	var result Element
	err = s.client.doJSONRequest(ctx, http.MethodPost, elementType, s.client.collectionPath(elementType), nil, payload, &result, false)
	if err != nil {
		return nil, err
	}

	id := result.ID
	if id == "" {
		id = payload.ID
	}
	s.client.cacheElement(elementType, id, &result)

	s.client.logger.Debug().
		Str("element_type", elementType).
		Str("element_id", id).
		Msg("element created")

	return &result, nil
}

// Update reads the current element, merges updates over it and sends the
// full record. Keys in updates win over the current values.
func (s *ElementService) Update(ctx context.Context, elementType, id string, updates map[string]any) (element *Element, err error) {
	ctx, done := s.client.startOperation(ctx, "update", elementType, id)
	defer func() { done(err) }()

	if err := s.client.precheck(elementType); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalidArgument("element id is required")
	}

	current, err := s.Get(ctx, elementType, id)
	if err != nil {
		return nil, err
	}

	merged := current.ToMap()
	for key, value := range updates {
		merged[key] = value
	}

	var result Element
	err = s.client.doJSONRequest(ctx, http.MethodPut, elementType, s.client.elementPath(elementType, id), nil, merged, &result, false)
	if err != nil {
		return nil, err
	}

	s.client.cacheElement(elementType, id, &result)
	return &result, nil
}

// Delete removes an element. The cache entry is dropped only after the
// server confirms.
func (s *ElementService) Delete(ctx context.Context, elementType, id string) (err error) {
	ctx, done := s.client.startOperation(ctx, "delete", elementType, id)
	defer func() { done(err) }()

	if err := s.client.precheck(elementType); err != nil {
		return err
	}
	if id == "" {
		return invalidArgument("element id is required")
	}

	err = s.client.doJSONRequest(ctx, http.MethodDelete, elementType, s.client.elementPath(elementType, id), nil, nil, nil, false)
	if err != nil {
		return err
	}

	s.client.cache.Invalidate(elementType, id)
	s.client.metrics.SetCacheSize(s.client.cache.Len())
	return nil
}

// Search lists elements whose name contains term, ignoring case. Terms
// shorter than MinSearchLength return no results without a request.
func (s *ElementService) Search(ctx context.Context, elementType, term string) ([]*Element, error) {
	if utf8.RuneCountInString(term) < MinSearchLength {
		return []*Element{}, nil
	}
	return s.List(ctx, elementType, Filters{"name__icontains": term})
}

// Counts lists every element type concurrently and reports how many
// elements each holds. A type that fails is logged and left out.
func (s *ElementService) Counts(ctx context.Context) (map[string]int, error) {
	if !s.client.auth.IsAuthenticated() {
		return nil, errNotAuthenticated
	}

	var (
		mu     sync.Mutex
		counts = make(map[string]int, len(ElementTypes))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(countsConcurrency)

	for _, elementType := range ElementTypes {
		g.Go(func() error {
			elements, err := s.List(gctx, elementType, nil)
			if err != nil {
				s.client.logger.Warn().
					Err(err).
					Str("element_type", elementType).
					Msg("failed to count elements")
				return nil
			}
			mu.Lock()
			counts[elementType] = len(elements)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// ClearCache drops every cached element
func (s *ElementService) ClearCache() {
	s.client.cache.Clear()
	s.client.metrics.SetCacheSize(0)
}

// filterValue renders a filter as a query value. Lists are joined with
// commas.
func filterValue(v any) string {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, fmt.Sprint(rv.Index(i).Interface()))
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
