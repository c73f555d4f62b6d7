// Package mcp implements a Model Context Protocol server exposing rotation
// profile validation, documentation and spell name lookup as MCP tools over
// stdio transport.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/rotalsp/pkg/engine"
	"github.com/Sumatoshi-tech/rotalsp/pkg/observability"
	"github.com/Sumatoshi-tech/rotalsp/pkg/version"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "rotalsp"

	// opPrefix prefixes tool names in span and metric operation names.
	opPrefix = "mcp."

	// traceIDMetaKey carries the trace id in a sampled result's _meta.
	traceIDMetaKey = "trace_id"
)

// errToolFailed marks a tool call that answered with IsError.
var errToolFailed = errors.New("tool reported an error")

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics is an optional RED metrics recorder. Nil disables per-tool metrics.
	Metrics *observability.REDMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with the rotation tools registered.
type Server struct {
	inner   *mcpsdk.Server
	engine  *engine.Engine
	mu      sync.RWMutex
	tools   []string
	metrics *observability.REDMetrics
	tracer  trace.Tracer
}

// NewServer creates a new MCP server backed by eng.
func NewServer(eng *engine.Engine, deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	srv := &Server{
		inner: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    serverName,
			Version: version.Resolve(),
		}, opts),
		engine:  eng,
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
	}

	addTool(srv, ToolNameValidate, validateToolDescription, srv.handleValidate)
	addTool(srv, ToolNameDescribe, describeToolDescription, srv.handleDescribe)
	addTool(srv, ToolNameNames, namesToolDescription, srv.handleNames)

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := slices.Clone(s.tools)
	slices.Sort(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the context
// is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport starts the MCP server on the given transport. It blocks
// until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// addTool registers handler under name, instrumented with a span and RED
// metrics per call.
func addTool[In any](
	s *Server, name, description string,
	handler func(context.Context, *mcpsdk.CallToolRequest, In) (*mcpsdk.CallToolResult, ToolOutput, error),
) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{Name: name, Description: description}, instrument(s, name, handler))

	s.mu.Lock()
	s.tools = append(s.tools, name)
	s.mu.Unlock()
}

// instrument wraps a tool handler with a server span and RED metrics. A
// result with IsError counts as a failed request. Sampled results carry the
// trace id in _meta.
func instrument[In any](
	s *Server, name string,
	handler func(context.Context, *mcpsdk.CallToolRequest, In) (*mcpsdk.CallToolResult, ToolOutput, error),
) func(context.Context, *mcpsdk.CallToolRequest, In) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if s.tracer == nil && s.metrics == nil {
		return handler
	}

	op := opPrefix + name

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, ToolOutput, error) {
		var span trace.Span
		if s.tracer != nil {
			ctx, span = s.tracer.Start(ctx, op,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attribute.String("mcp.tool", name)),
			)
			defer span.End()
		}

		finish := func(error) {}
		if s.metrics != nil {
			finish = s.metrics.Observe(ctx, op)
		}

		result, output, err := handler(ctx, req, input)

		outcome := err
		if outcome == nil && result != nil && result.IsError {
			outcome = errToolFailed
		}

		finish(outcome)

		if span != nil {
			if outcome != nil {
				span.SetStatus(codes.Error, outcome.Error())
			}

			if sc := span.SpanContext(); sc.IsSampled() && result != nil {
				if result.Meta == nil {
					result.Meta = mcpsdk.Meta{}
				}

				result.Meta[traceIDMetaKey] = sc.TraceID().String()
			}
		}

		return result, output, err
	}
}

// Tool description constants.
const (
	validateToolDescription = "Validate a rotation profile (YAML with action lines and if= conditions). " +
		"Returns findings with zero-based line, byte columns, severity, code and message."

	describeToolDescription = "Describe one token of the rotation language: an expression such as " +
		"buff.haste.up, a step option such as target_if, a special action, or a spell name."

	namesToolDescription = "Look up spell names in the loaded name dictionary. " +
		"mode=search matches by prefix; mode=similar returns near misses of a misspelled name."
)
