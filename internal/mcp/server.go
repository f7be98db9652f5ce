package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/sumandas0/worldkit/pkg/sdk"
)

// ElementAPI is the slice of the element service the tools call
type ElementAPI interface {
	List(ctx context.Context, elementType string, filters sdk.Filters) ([]*sdk.Element, error)
	Get(ctx context.Context, elementType, id string) (*sdk.Element, error)
	Create(ctx context.Context, elementType string, data *sdk.Element) (*sdk.Element, error)
	Update(ctx context.Context, elementType, id string, updates map[string]any) (*sdk.Element, error)
	Delete(ctx context.Context, elementType, id string) error
	Search(ctx context.Context, elementType, term string) ([]*sdk.Element, error)
	Counts(ctx context.Context) (map[string]int, error)
	ResolveReferences(ctx context.Context, element *sdk.Element, fields ...string) *sdk.Element
	ReferenceFields(element *sdk.Element) []string
}

type Server struct {
	elements ElementAPI
	logger   zerolog.Logger
	mcp      *mcpsdk.Server
}

func NewServer(elements ElementAPI, logger zerolog.Logger, version string) *Server {
	s := &Server{
		elements: elements,
		logger:   logger,
		mcp: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    "worldkit",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport mcpsdk.Transport) error {
	s.logger.Info().Msg("MCP server running")
	return s.mcp.Run(ctx, transport)
}

// Connect attaches the server to a single transport without blocking
func (s *Server) Connect(ctx context.Context, transport mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcp.Connect(ctx, transport, nil)
}
