// Package lsp provides a Language Server Protocol (LSP) server that publishes
// importonly diagnostics for open Python documents.
package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/importonly/pkg/checker"
	"github.com/Sumatoshi-tech/importonly/pkg/observability"
	"github.com/Sumatoshi-tech/importonly/pkg/pyparse"
	"github.com/Sumatoshi-tech/importonly/pkg/pytree"
	"github.com/Sumatoshi-tech/importonly/pkg/resolve"
	"github.com/Sumatoshi-tech/importonly/pkg/rules"
	"github.com/Sumatoshi-tech/importonly/pkg/runner"
)

const (
	serverName       = "importonly"
	diagnosticSource = "importonly"
	opPublish        = "lsp.publish"
	fileScheme       = "file"
)

// ServerDeps holds the configuration and shared infrastructure of a Server.
type ServerDeps struct {
	RuleSet     *rules.RuleSet
	SearchPaths []string
	Disabled    []checker.RuleID
	Version     string
	Logger      *slog.Logger
	Metrics     *observability.REDMetrics
	Tracer      trace.Tracer
}

// Server implements the importonly language server.
type Server struct {
	deps    ServerDeps
	store   *DocumentStore
	parser  *pyparse.Parser
	runner  atomic.Pointer[runner.Runner]
	handler protocol.Handler
}

// NewServer creates a server checking against the search paths in deps. The
// workspace root announced by the client is added in front of them.
func NewServer(deps ServerDeps) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if deps.Tracer == nil {
		deps.Tracer = nooptrace.NewTracerProvider().Tracer(serverName)
	}

	srv := &Server{
		deps:   deps,
		store:  NewDocumentStore(),
		parser: pyparse.New(),
	}

	if err := srv.configure(""); err != nil {
		return nil, err
	}

	srv.handler = protocol.Handler{
		Initialize:            srv.initialize,
		Initialized:           srv.initialized,
		Shutdown:              srv.shutdown,
		SetTrace:              srv.setTrace,
		TextDocumentDidOpen:   srv.didOpen,
		TextDocumentDidChange: srv.didChange,
		TextDocumentDidSave:   srv.didSave,
		TextDocumentDidClose:  srv.didClose,
		TextDocumentHover:     srv.hover,
	}

	return srv, nil
}

// Handler exposes the protocol handler table.
func (srv *Server) Handler() *protocol.Handler {
	return &srv.handler
}

// Store exposes the open documents.
func (srv *Server) Store() *DocumentStore {
	return srv.store
}

// Run serves LSP on stdio until the client disconnects.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	if err := lspServer.RunStdio(); err != nil {
		return fmt.Errorf("lsp server: %w", err)
	}

	return nil
}

// configure rebuilds the runner with workspaceRoot in front of the search
// paths. Relative search paths are taken from the workspace root.
func (srv *Server) configure(workspaceRoot string) error {
	roots := make([]string, 0, len(srv.deps.SearchPaths)+1)

	if workspaceRoot != "" {
		roots = append(roots, workspaceRoot)
	}

	for _, p := range srv.deps.SearchPaths {
		if workspaceRoot != "" && !filepath.IsAbs(p) {
			p = filepath.Join(workspaceRoot, p)
		}

		roots = append(roots, p)
	}

	c := checker.New(srv.deps.RuleSet, resolve.NewFS(roots...),
		checker.WithDisabled(srv.deps.Disabled...),
		checker.WithLogger(srv.deps.Logger),
	)

	run, err := runner.New(runner.Options{
		Checker: c,
		Parser:  srv.parser,
		Logger:  srv.deps.Logger,
		Tracer:  srv.deps.Tracer,
	})
	if err != nil {
		return fmt.Errorf("configure lsp runner: %w", err)
	}

	srv.runner.Store(run)

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	root := ""

	switch {
	case params.RootURI != nil:
		root = uriToPath(*params.RootURI)
	case params.RootPath != nil:
		root = *params.RootPath
	}

	if err := srv.configure(root); err != nil {
		return nil, err
	}

	srv.deps.Logger.Info("lsp initialized", "root", root)

	capabilities := srv.handler.CreateServerCapabilities()

	if syncOpts, ok := capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions); ok {
		full := protocol.TextDocumentSyncKindFull
		syncOpts.Change = &full
	}

	version := srv.deps.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
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

	srv.store.Set(uri, params.TextDocument.Text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// Full sync: the last change carries the whole document.
	for i := len(params.ContentChanges) - 1; i >= 0; i-- {
		text, ok := wholeText(params.ContentChanges[i])
		if !ok {
			continue
		}

		srv.store.Set(uri, text)
		srv.publishDiagnostics(ctx, uri)

		break
	}

	return nil
}

func wholeText(change any) (string, bool) {
	switch c := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return c.Text, true
	case protocol.TextDocumentContentChangeEvent:
		return c.Text, c.Range == nil
	case map[string]any:
		text, ok := c["text"].(string)
		_, ranged := c["range"]

		return text, ok && !ranged
	default:
		return "", false
	}
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if params.Text != nil {
		srv.store.Set(uri, *params.Text)
	}

	if _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
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
	pos := params.Position

	var parts []string

	for _, d := range srv.store.Diagnostics(params.TextDocument.URI) {
		if !covers(d, pos) {
			continue
		}

		rule, ok := checker.Lookup(d.Rule)
		if !ok {
			continue
		}

		parts = append(parts, fmt.Sprintf("**%s** `%s`: %s\n\n%s", rule.Code, rule.ID, d.Message, rule.Description))
	}

	if len(parts) == 0 {
		return nil, nil // LSP protocol expects nil hover when no diagnostic applies.
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: strings.Join(parts, "\n\n---\n\n"),
		},
	}, nil
}

// covers reports whether the zero-based pos lies inside d.
func covers(d checker.Diagnostic, pos protocol.Position) bool {
	start := toPosition(d.Pos)
	end := toPosition(d.End)

	if pos.Line < start.Line || pos.Line > end.Line {
		return false
	}

	if pos.Line == start.Line && pos.Character < start.Character {
		return false
	}

	return pos.Line != end.Line || pos.Character <= end.Character
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	text, ok := srv.store.Get(uri)
	if !ok {
		return
	}

	spanCtx, span := srv.deps.Tracer.Start(context.Background(), opPublish,
		trace.WithAttributes(attribute.String("lsp.uri", uri)))
	defer span.End()

	start := time.Now()

	diags, err := srv.runner.Load().CheckSource(spanCtx, uriToPath(uri), []byte(text))

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError

		span.RecordError(err)
		srv.deps.Logger.WarnContext(spanCtx, "check failed", "uri", uri, "error", err)
	}

	if srv.deps.Metrics != nil {
		srv.deps.Metrics.RecordRequest(spanCtx, opPublish, status, time.Since(start))
	}

	srv.store.SetDiagnostics(uri, diags)

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toProtocolDiagnostics(diags),
	})
}

func toProtocolDiagnostics(diags []checker.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	severity := protocol.DiagnosticSeverityWarning
	source := diagnosticSource

	for _, d := range diags {
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: toPosition(d.Pos),
				End:   toPosition(d.End),
			},
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: string(d.Rule)},
			Source:   &source,
			Message:  d.Message,
		})
	}

	return out
}

// toPosition converts a 1-based tree position into a zero-based LSP one.
// Columns are byte offsets; clients on UTF-16 may be off on non-ASCII lines.
func toPosition(p pytree.Point) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(max(p.Line, 1) - 1),
		Character: protocol.UInteger(max(p.Col, 1) - 1),
	}
}

func uriToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != fileScheme {
		return uri
	}

	return filepath.FromSlash(u.Path)
}
