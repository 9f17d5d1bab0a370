// Package lsp is a minimal language server: full-text document sync with
// published diagnostics from the compiler front half, plus whole-document
// formatting through the canonical printer.
package lsp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/veld-lang/veld/internal/analyzer"
	"github.com/veld-lang/veld/internal/diagnostics"
	"github.com/veld-lang/veld/internal/lexer"
	"github.com/veld-lang/veld/internal/parser"
	"github.com/veld-lang/veld/internal/pipeline"
	"github.com/veld-lang/veld/internal/prettyprinter"
)

type Server struct {
	writer io.Writer
	mu     sync.Mutex // serializes writes to the client

	documents map[string]string // URI -> current text
	shutdown  bool
}

func NewServer(writer io.Writer) *Server {
	return &Server{
		writer:    writer,
		documents: make(map[string]string),
	}
}

// Run drives a server over Content-Length framed JSON-RPC until the client
// sends exit or the stream closes. The return value is the process exit
// code mandated by the protocol.
func Run(in io.Reader, out io.Writer, errOut io.Writer) int {
	s := NewServer(out)
	reader := bufio.NewReader(in)
	for {
		content, err := readMessage(reader)
		if err != nil {
			if err != io.EOF {
				fmt.Fprintln(errOut, "lsp:", err)
			}
			return 1
		}
		exit, code := s.handle(content)
		if exit {
			return code
		}
	}
}

// readMessage consumes one Content-Length framed payload.
func readMessage(reader *bufio.Reader) ([]byte, error) {
	contentLength := -1
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if contentLength >= 0 {
				break
			}
			continue
		}
		if v, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("bad Content-Length %q", v)
			}
			contentLength = n
		}
	}
	content := make([]byte, contentLength)
	if _, err := io.ReadFull(reader, content); err != nil {
		return nil, err
	}
	return content, nil
}

func (s *Server) handle(content []byte) (exit bool, code int) {
	var msg RequestMessage
	if err := json.Unmarshal(content, &msg); err != nil {
		return false, 0
	}

	switch msg.Method {
	case "initialize":
		s.respond(msg.ID, InitializeResult{
			Capabilities: ServerCapabilities{
				TextDocumentSync:           1,
				DocumentFormattingProvider: true,
			},
			ServerInfo: ServerInfo{Name: "veld-lsp", Version: "0.1.0"},
		})
	case "initialized":
		// client ack, nothing to do
	case "shutdown":
		s.shutdown = true
		s.respond(msg.ID, nil)
	case "exit":
		if s.shutdown {
			return true, 0
		}
		return true, 1
	case "textDocument/didOpen":
		var params DidOpenTextDocumentParams
		if s.params(content, &params) {
			s.documents[params.TextDocument.URI] = params.TextDocument.Text
			s.publishDiagnostics(params.TextDocument.URI)
		}
	case "textDocument/didChange":
		var params DidChangeTextDocumentParams
		if s.params(content, &params) && len(params.ContentChanges) > 0 {
			// full sync: the last change carries the complete text
			s.documents[params.TextDocument.URI] = params.ContentChanges[len(params.ContentChanges)-1].Text
			s.publishDiagnostics(params.TextDocument.URI)
		}
	case "textDocument/didClose":
		var params DidCloseTextDocumentParams
		if s.params(content, &params) {
			delete(s.documents, params.TextDocument.URI)
			s.notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{
				URI:         params.TextDocument.URI,
				Diagnostics: []LspDiagnostic{},
			})
		}
	case "textDocument/formatting":
		s.formatting(msg.ID, content)
	default:
		if msg.ID != nil {
			s.respondError(msg.ID, codeMethodNotFound, "unhandled method "+msg.Method)
		}
	}
	return false, 0
}

func (s *Server) params(content []byte, into interface{}) bool {
	var envelope struct {
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(content, &envelope); err != nil {
		return false
	}
	return json.Unmarshal(envelope.Params, into) == nil
}

// analyze runs the compiler front half over a document.
func (s *Server) analyze(uri, text string) *pipeline.PipelineContext {
	ctx := &pipeline.PipelineContext{
		FilePath:   uriToPath(uri),
		SourceCode: text,
	}
	return pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.AnalyzerProcessor{},
	).Run(ctx)
}

func (s *Server) publishDiagnostics(uri string) {
	text := s.documents[uri]
	ctx := s.analyze(uri, text)

	out := make([]LspDiagnostic, 0, len(ctx.Errors))
	for _, d := range ctx.Errors {
		out = append(out, toLspDiagnostic(d))
	}
	s.notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: out,
	})
}

func (s *Server) formatting(id interface{}, content []byte) {
	var params DocumentFormattingParams
	if !s.params(content, &params) {
		s.respondError(id, codeInvalidParams, "bad formatting params")
		return
	}
	text, ok := s.documents[params.TextDocument.URI]
	if !ok {
		s.respondError(id, codeInvalidParams, "unknown document "+params.TextDocument.URI)
		return
	}
	ctx := s.analyze(params.TextDocument.URI, text)
	program := parser.ProgramOf(ctx)
	if program == nil || ctx.Failed() {
		// never format broken source
		s.respond(id, []TextEdit{})
		return
	}
	formatted := prettyprinter.NewCodePrinter().Print(program)
	s.respond(id, []TextEdit{{
		Range: Range{
			Start: Position{Line: 0, Character: 0},
			End:   Position{Line: strings.Count(text, "\n") + 1, Character: 0},
		},
		NewText: formatted,
	}})
}

func toLspDiagnostic(d *diagnostics.Diagnostic) LspDiagnostic {
	severity := 1 // error
	switch d.Severity {
	case diagnostics.SeverityWarning:
		severity = 2
	case diagnostics.SeverityHint:
		severity = 4
	}
	return LspDiagnostic{
		Range: Range{
			// LSP positions are zero-based; diagnostics are one-based
			Start: Position{Line: d.Span.Line - 1, Character: d.Span.Column - 1},
			End:   Position{Line: d.Span.EndLine - 1, Character: d.Span.EndColumn - 1},
		},
		Severity: severity,
		Code:     string(d.Code),
		Source:   "veld",
		Message:  d.Message,
	}
}

func uriToPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

func (s *Server) respond(id, result interface{}) {
	s.send(ResponseMessage{Jsonrpc: "2.0", ID: id, Result: result})
}

func (s *Server) respondError(id interface{}, code int, msg string) {
	s.send(ResponseMessage{Jsonrpc: "2.0", ID: id, Error: &Error{Code: code, Message: msg}})
}

func (s *Server) notify(method string, params interface{}) {
	s.send(NotificationMessage{Jsonrpc: "2.0", Method: method, Params: params})
}

func (s *Server) send(msg interface{}) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.writer, "Content-Length: %d\r\n\r\n%s", len(payload), payload)
}
