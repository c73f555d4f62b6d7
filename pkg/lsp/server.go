// Package lsp serves rotation profiles over the Language Server Protocol:
// diagnostics on every change, hover documentation and completion.
package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/rotalsp/pkg/engine"
	"github.com/Sumatoshi-tech/rotalsp/pkg/version"
)

const (
	serverName = "rotalsp"

	// CommandReloadNames reloads the configured spell name sources.
	CommandReloadNames = "rotalsp.reloadNames"

	diagnosticSource = "rotalsp"
)

// Server implements the rotation profile language server.
type Server struct {
	engine  *engine.Engine
	store   *DocumentStore
	logger  *slog.Logger
	handler protocol.Handler

	ctx        context.Context //nolint:containedctx // glsp handlers carry no context
	noticeOnce sync.Once
}

// NewServer creates a language server backed by eng.
func NewServer(eng *engine.Engine, logger *slog.Logger) *Server {
	srv := &Server{
		engine: eng,
		store:  NewDocumentStore(),
		logger: logger,
		ctx:    context.Background(),
	}

	srv.handler = protocol.Handler{
		Initialize:              srv.initialize,
		Initialized:             srv.initialized,
		Shutdown:                srv.shutdown,
		SetTrace:                srv.setTrace,
		TextDocumentDidOpen:     srv.didOpen,
		TextDocumentDidChange:   srv.didChange,
		TextDocumentDidSave:     srv.didSave,
		TextDocumentDidClose:    srv.didClose,
		TextDocumentCompletion:  srv.completion,
		TextDocumentHover:       srv.hover,
		WorkspaceExecuteCommand: srv.executeCommand,
	}

	return srv
}

// Run serves the protocol on stdio until the client disconnects. ctx is
// passed to engine calls made by the handlers.
func (srv *Server) Run(ctx context.Context) error {
	srv.ctx = ctx

	lspServer := server.NewServer(&srv.handler, serverName, false)

	err := lspServer.RunStdio()
	if err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
		Save:      true,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", "=", ","},
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{CommandReloadNames},
	}

	ver := version.Resolve()

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &ver,
		},
	}, nil
}

func (srv *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	srv.noticeOnce.Do(func() {
		notice := srv.engine.LoadNotice()
		if notice == "" {
			return
		}

		ctx.Notify(protocol.ServerWindowShowMessage, &protocol.ShowMessageParams{
			Type:    protocol.MessageTypeWarning,
			Message: notice,
		})
	})

	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI

	doc := srv.store.Set(uri, params.TextDocument.Text)
	srv.publishDiagnostics(ctx, uri, doc)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	if len(params.ContentChanges) == 0 {
		return nil
	}

	text, _ := srv.store.Text(uri)
	for _, change := range params.ContentChanges {
		text = applyChange(text, change)
	}

	doc := srv.store.Set(uri, text)
	srv.publishDiagnostics(ctx, uri, doc)

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if doc, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri, doc)
	}

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Delete(uri)

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := srv.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil // LSP expects a null hover for unknown documents.
	}

	line, col, ok := cursor(doc, params.Position)
	if !ok {
		return nil, nil //nolint:nilnil // LSP expects a null hover outside the document.
	}

	info, found := srv.engine.Hover(srv.ctx, doc, line, col)
	if !found {
		return nil, nil //nolint:nilnil // LSP expects a null hover when nothing is documented.
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: info.Markdown(),
		},
	}, nil
}

func (srv *Server) completion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	items := []protocol.CompletionItem{}

	doc, ok := srv.store.Get(params.TextDocument.URI)
	if ok {
		if line, col, inside := cursor(doc, params.Position); inside {
			for _, item := range srv.engine.Complete(srv.ctx, doc, line, col) {
				items = append(items, completionItem(item))
			}
		}
	}

	return protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

func (srv *Server) executeCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	if params.Command != CommandReloadNames {
		return nil, fmt.Errorf("%w: %s", errUnknownCommand, params.Command)
	}

	count, err := srv.engine.ReloadNames(srv.ctx)
	if err != nil {
		srv.logger.WarnContext(srv.ctx, "reload names", "error", err)
		ctx.Notify(protocol.ServerWindowShowMessage, &protocol.ShowMessageParams{
			Type:    protocol.MessageTypeWarning,
			Message: srv.engine.LoadNotice(),
		})
	} else {
		ctx.Notify(protocol.ServerWindowShowMessage, &protocol.ShowMessageParams{
			Type:    protocol.MessageTypeInfo,
			Message: fmt.Sprintf("Loaded %d spell names.", count),
		})
	}

	for _, uri := range srv.store.URIs() {
		if doc, ok := srv.store.Get(uri); ok {
			srv.publishDiagnostics(ctx, uri, doc)
		}
	}

	return count, nil
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string, doc *engine.Document) {
	findings := srv.engine.Validate(srv.ctx, doc)

	diagnostics := make([]protocol.Diagnostic, 0, len(findings))
	for _, finding := range findings {
		diagnostics = append(diagnostics, diagnostic(doc, finding))
	}

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// cursor converts an LSP position into a line index and byte column.
func cursor(doc *engine.Document, pos protocol.Position) (int, int, bool) {
	line, ok := doc.Line(int(pos.Line))
	if !ok {
		return 0, 0, false
	}

	return int(pos.Line), utf16ToByte(line, pos.Character), true
}
