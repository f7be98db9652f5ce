package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sumandas0/worldkit/pkg/sdk"
)

type ListElementsInput struct {
	Type    string            `json:"type" jsonschema:"element type, e.g. character or location"`
	Filters map[string]string `json:"filters,omitempty" jsonschema:"extra query filters, e.g. supertype"`
}

type GetElementInput struct {
	Type    string `json:"type" jsonschema:"element type"`
	ID      string `json:"id" jsonschema:"element identifier"`
	Resolve bool   `json:"resolve,omitempty" jsonschema:"attach the elements its reference fields point to"`
}

type SearchElementsInput struct {
	Type string `json:"type" jsonschema:"element type"`
	Term string `json:"term" jsonschema:"case-insensitive name fragment, at least two characters"`
}

type CreateElementInput struct {
	Type   string         `json:"type" jsonschema:"element type"`
	Fields map[string]any `json:"fields" jsonschema:"element attributes; name is required"`
}

type UpdateElementInput struct {
	Type    string         `json:"type" jsonschema:"element type"`
	ID      string         `json:"id" jsonschema:"element identifier"`
	Updates map[string]any `json:"updates" jsonschema:"attributes to change; all others are kept"`
}

type DeleteElementInput struct {
	Type string `json:"type" jsonschema:"element type"`
	ID   string `json:"id" jsonschema:"element identifier"`
}

type ResolveReferencesInput struct {
	Type   string   `json:"type" jsonschema:"element type"`
	ID     string   `json:"id" jsonschema:"element identifier"`
	Fields []string `json:"fields,omitempty" jsonschema:"reference fields to resolve; all detected fields when empty"`
}

type CountElementsInput struct{}

type ListElementTypesInput struct{}

type ElementOutput struct {
	Element map[string]any `json:"element"`
}

type ElementsOutput struct {
	Count    int              `json:"count"`
	Elements []map[string]any `json:"elements"`
}

type DeleteElementOutput struct {
	Deleted bool   `json:"deleted"`
	Type    string `json:"type"`
	ID      string `json:"id"`
}

type CountElementsOutput struct {
	Counts map[string]int `json:"counts"`
}

type ElementTypeOutput struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	Icon       string   `json:"icon"`
	Supertypes []string `json:"supertypes,omitempty"`
}

type ListElementTypesOutput struct {
	Types []ElementTypeOutput `json:"types"`
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "list_elements",
		Description: "List the elements of one type in the world",
	}, s.handleListElements)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "get_element",
		Description: "Retrieve one element, optionally with its references resolved",
	}, s.handleGetElement)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "search_elements",
		Description: "Find elements of one type whose name contains a term",
	}, s.handleSearchElements)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "create_element",
		Description: "Create an element in the world",
	}, s.handleCreateElement)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "update_element",
		Description: "Change some attributes of an element",
	}, s.handleUpdateElement)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "delete_element",
		Description: "Delete an element",
	}, s.handleDeleteElement)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "resolve_references",
		Description: "Fetch the elements an element's reference fields point to",
	}, s.handleResolveReferences)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "count_elements",
		Description: "Count the elements of every type",
	}, s.handleCountElements)

	mcpsdk.AddTool(s.mcp, &mcpsdk.Tool{
		Name:        "list_element_types",
		Description: "Return the element types the world API serves",
	}, s.handleListElementTypes)
}

func (s *Server) handleListElements(ctx context.Context, req *mcpsdk.CallToolRequest, input ListElementsInput) (*mcpsdk.CallToolResult, ElementsOutput, error) {
	var filters sdk.Filters
	if len(input.Filters) > 0 {
		filters = make(sdk.Filters, len(input.Filters))
		for key, value := range input.Filters {
			filters[key] = value
		}
	}

	elements, err := s.elements.List(ctx, input.Type, filters)
	if err != nil {
		return nil, ElementsOutput{}, err
	}
	return nil, elementsOutput(elements), nil
}

func (s *Server) handleGetElement(ctx context.Context, req *mcpsdk.CallToolRequest, input GetElementInput) (*mcpsdk.CallToolResult, ElementOutput, error) {
	if input.ID == "" {
		return nil, ElementOutput{}, fmt.Errorf("id is required")
	}
	element, err := s.elements.Get(ctx, input.Type, input.ID)
	if err != nil {
		return nil, ElementOutput{}, err
	}
	if input.Resolve {
		element = s.elements.ResolveReferences(ctx, element, s.elements.ReferenceFields(element)...)
	}
	return nil, ElementOutput{Element: element.PlainMap()}, nil
}

func (s *Server) handleSearchElements(ctx context.Context, req *mcpsdk.CallToolRequest, input SearchElementsInput) (*mcpsdk.CallToolResult, ElementsOutput, error) {
	elements, err := s.elements.Search(ctx, input.Type, input.Term)
	if err != nil {
		return nil, ElementsOutput{}, err
	}
	return nil, elementsOutput(elements), nil
}

func (s *Server) handleCreateElement(ctx context.Context, req *mcpsdk.CallToolRequest, input CreateElementInput) (*mcpsdk.CallToolResult, ElementOutput, error) {
	element, err := s.elements.Create(ctx, input.Type, sdk.ElementFromMap(input.Fields))
	if err != nil {
		return nil, ElementOutput{}, err
	}
	s.logger.Info().
		Str("element_type", input.Type).
		Str("element_id", element.ID).
		Msg("element created over MCP")
	return nil, ElementOutput{Element: element.PlainMap()}, nil
}

func (s *Server) handleUpdateElement(ctx context.Context, req *mcpsdk.CallToolRequest, input UpdateElementInput) (*mcpsdk.CallToolResult, ElementOutput, error) {
	if input.ID == "" {
		return nil, ElementOutput{}, fmt.Errorf("id is required")
	}
	if len(input.Updates) == 0 {
		return nil, ElementOutput{}, fmt.Errorf("updates are required")
	}
	element, err := s.elements.Update(ctx, input.Type, input.ID, input.Updates)
	if err != nil {
		return nil, ElementOutput{}, err
	}
	return nil, ElementOutput{Element: element.PlainMap()}, nil
}

func (s *Server) handleDeleteElement(ctx context.Context, req *mcpsdk.CallToolRequest, input DeleteElementInput) (*mcpsdk.CallToolResult, DeleteElementOutput, error) {
	if input.ID == "" {
		return nil, DeleteElementOutput{}, fmt.Errorf("id is required")
	}
	if err := s.elements.Delete(ctx, input.Type, input.ID); err != nil {
		return nil, DeleteElementOutput{}, err
	}
	return nil, DeleteElementOutput{Deleted: true, Type: input.Type, ID: input.ID}, nil
}

func (s *Server) handleResolveReferences(ctx context.Context, req *mcpsdk.CallToolRequest, input ResolveReferencesInput) (*mcpsdk.CallToolResult, ElementOutput, error) {
	if input.ID == "" {
		return nil, ElementOutput{}, fmt.Errorf("id is required")
	}
	element, err := s.elements.Get(ctx, input.Type, input.ID)
	if err != nil {
		return nil, ElementOutput{}, err
	}
	fields := input.Fields
	if len(fields) == 0 {
		fields = s.elements.ReferenceFields(element)
	}
	resolved := s.elements.ResolveReferences(ctx, element, fields...)
	return nil, ElementOutput{Element: resolved.PlainMap()}, nil
}

func (s *Server) handleCountElements(ctx context.Context, req *mcpsdk.CallToolRequest, input CountElementsInput) (*mcpsdk.CallToolResult, CountElementsOutput, error) {
	counts, err := s.elements.Counts(ctx)
	if err != nil {
		return nil, CountElementsOutput{}, err
	}
	return nil, CountElementsOutput{Counts: counts}, nil
}

func (s *Server) handleListElementTypes(ctx context.Context, req *mcpsdk.CallToolRequest, input ListElementTypesInput) (*mcpsdk.CallToolResult, ListElementTypesOutput, error) {
	out := ListElementTypesOutput{Types: make([]ElementTypeOutput, 0, len(sdk.ElementTypes))}
	for _, name := range sdk.ElementTypes {
		out.Types = append(out.Types, ElementTypeOutput{
			Name:       name,
			Label:      sdk.Label(name),
			Icon:       sdk.Icon(name),
			Supertypes: sdk.CommonSupertypes[name],
		})
	}
	return nil, out, nil
}

func elementsOutput(elements []*sdk.Element) ElementsOutput {
	out := ElementsOutput{
		Count:    len(elements),
		Elements: make([]map[string]any, 0, len(elements)),
	}
	for _, element := range elements {
		out.Elements = append(out.Elements, element.PlainMap())
	}
	return out
}
