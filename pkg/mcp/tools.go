package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/rotalsp/pkg/engine"
	"github.com/Sumatoshi-tech/rotalsp/pkg/validate"
)

// Tool name constants.
const (
	ToolNameValidate = "rotation_validate"
	ToolNameDescribe = "rotation_describe"
	ToolNameNames    = "rotation_names"
)

// Name lookup modes.
const (
	NamesModeSearch  = "search"
	NamesModeSimilar = "similar"
)

// Input size limits.
const (
	// MaxTextInputBytes is the maximum allowed size for an inline profile (1 MB).
	MaxTextInputBytes = 1 << 20

	// defaultNamesLimit bounds name search results when no limit is given.
	defaultNamesLimit = 20
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyText indicates the text parameter is empty.
	ErrEmptyText = errors.New("text parameter is required and must not be empty")
	// ErrTextTooLarge indicates the profile exceeds the size limit.
	ErrTextTooLarge = errors.New("text input exceeds maximum size")
	// ErrEmptyToken indicates the token parameter is empty.
	ErrEmptyToken = errors.New("token parameter is required and must not be empty")
	// ErrNoDocumentation indicates nothing is known about a token.
	ErrNoDocumentation = errors.New("no documentation for token")
	// ErrEmptyQuery indicates the query parameter is empty.
	ErrEmptyQuery = errors.New("query parameter is required and must not be empty")
	// ErrUnknownMode indicates an unsupported names mode.
	ErrUnknownMode = errors.New("mode must be search or similar")
)

// Input types (auto-generate JSON schemas via struct tags).

// ValidateInput is the input schema for the rotation_validate tool.
type ValidateInput struct {
	Text string `json:"text" jsonschema:"full rotation profile text"`
}

// DescribeInput is the input schema for the rotation_describe tool.
type DescribeInput struct {
	Token string `json:"token" jsonschema:"expression, option, action or spell name to describe"`
}

// NamesInput is the input schema for the rotation_names tool.
type NamesInput struct {
	Distance int    `json:"distance,omitempty" jsonschema:"maximum edit distance for mode=similar (default from config)"`
	Limit    int    `json:"limit,omitempty"    jsonschema:"maximum number of results for mode=search (default 20)"`
	Mode     string `json:"mode,omitempty"     jsonschema:"search (default) or similar"`
	Query    string `json:"query"              jsonschema:"name or name prefix"`
}

// Output types.

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// ValidateReport is the rotation_validate result.
type ValidateReport struct {
	Findings []validate.Finding `json:"findings"`
	Errors   int                `json:"errors"`
	Warnings int                `json:"warnings"`
	Infos    int                `json:"infos"`
	Notice   string             `json:"notice,omitempty"`
}

// Description is the rotation_describe result.
type Description struct {
	Title       string `json:"title"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

// NameMatch is one rotation_names result.
type NameMatch struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Key  string `json:"key"`
}

// NamesReport is the rotation_names result.
type NamesReport struct {
	Mode    string      `json:"mode"`
	Loaded  bool        `json:"loaded"`
	Matches []NameMatch `json:"matches"`
}

func (s *Server) handleValidate(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ValidateInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateTextInput(input.Text)
	if err != nil {
		return errorResult(err)
	}

	findings := s.engine.Validate(ctx, engine.ParseDocument(input.Text))
	if findings == nil {
		findings = []validate.Finding{}
	}

	return jsonResult(ValidateReport{
		Findings: findings,
		Errors:   validate.Count(findings, validate.SeverityError),
		Warnings: validate.Count(findings, validate.SeverityWarning),
		Infos:    validate.Count(findings, validate.SeverityInfo),
		Notice:   s.engine.LoadNotice(),
	})
}

func (s *Server) handleDescribe(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input DescribeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	token := strings.TrimSpace(input.Token)
	if token == "" {
		return errorResult(ErrEmptyToken)
	}

	doc, ok := s.engine.Describe(ctx, token)
	if !ok {
		return errorResult(fmt.Errorf("%w: %s", ErrNoDocumentation, token))
	}

	return jsonResult(Description{
		Title:       doc.Title,
		Kind:        doc.Kind,
		Description: doc.Description,
		Example:     doc.Example,
	})
}

func (s *Server) handleNames(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input NamesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return errorResult(ErrEmptyQuery)
	}

	mode := input.Mode
	if mode == "" {
		mode = NamesModeSearch
	}

	report := NamesReport{Mode: mode, Loaded: s.engine.Names().Loaded(), Matches: []NameMatch{}}

	switch mode {
	case NamesModeSearch:
		limit := input.Limit
		if limit <= 0 {
			limit = defaultNamesLimit
		}

		for _, rec := range s.engine.SearchNames(query, limit) {
			report.Matches = append(report.Matches, NameMatch{ID: rec.ID, Name: rec.Name, Key: rec.Key})
		}
	case NamesModeSimilar:
		for _, rec := range s.engine.SimilarNames(query, input.Distance) {
			report.Matches = append(report.Matches, NameMatch{ID: rec.ID, Name: rec.Name, Key: rec.Key})
		}
	default:
		return errorResult(fmt.Errorf("%w: %q", ErrUnknownMode, mode))
	}

	return jsonResult(report)
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateTextInput checks profile size constraints.
func validateTextInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	if len(text) > MaxTextInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrTextTooLarge, len(text), MaxTextInputBytes)
	}

	return nil
}
