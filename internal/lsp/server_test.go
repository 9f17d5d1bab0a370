package lsp_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/veld-lang/veld/internal/lsp"
)

func frame(payload string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(payload), payload)
}

func session(messages ...string) (code int, out string, errOut string) {
	var in bytes.Buffer
	for _, m := range messages {
		in.WriteString(frame(m))
	}
	var outBuf, errBuf bytes.Buffer
	code = lsp.Run(&in, &outBuf, &errBuf)
	return code, outBuf.String(), errBuf.String()
}

func TestInitializeHandshake(t *testing.T) {
	code, out, _ := session(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, `"veld-lsp"`)
	assert.Contains(t, out, `"0.1.0"`)
}

func TestDiagnosticsLifecycle(t *testing.T) {
	code, out, _ := session(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"textDocument/didOpen","params":{"textDocument":{"uri":"file:///t.veld","text":"val = 1"}}}`,
		`{"jsonrpc":"2.0","method":"textDocument/didChange","params":{"textDocument":{"uri":"file:///t.veld"},"contentChanges":[{"text":"val x = 1\nprintln(x)\n"}]}}`,
		`{"jsonrpc":"2.0","method":"textDocument/didClose","params":{"textDocument":{"uri":"file:///t.veld"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "textDocument/publishDiagnostics")
	// broken first revision reports the parse error
	assert.Contains(t, out, `"P002"`)
	// the fixed revision and the close both publish a clean slate
	assert.Contains(t, out, `"diagnostics":[]`)
}

func TestSemanticDiagnostics(t *testing.T) {
	_, out, _ := session(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"textDocument/didOpen","params":{"textDocument":{"uri":"file:///t.veld","text":"val x = 1\nval a = x + 1\nval b = x + 1\n"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	)
	assert.Contains(t, out, `"T002"`)
	assert.Contains(t, out, "use of moved value x")
}

func TestFormatting(t *testing.T) {
	code, out, _ := session(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"textDocument/didOpen","params":{"textDocument":{"uri":"file:///t.veld","text":"val  x=1\nprintln(x)\n"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"textDocument/formatting","params":{"textDocument":{"uri":"file:///t.veld"},"options":{"tabSize":4}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, `"newText":"val x = 1\nprintln(x)\n"`)
}

func TestFormattingOnBrokenSource(t *testing.T) {
	_, out, _ := session(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"textDocument/didOpen","params":{"textDocument":{"uri":"file:///t.veld","text":"val = 1"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"textDocument/formatting","params":{"textDocument":{"uri":"file:///t.veld"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	)
	// never rewrite a document the parser could not understand
	assert.Contains(t, out, `"id":2,"result":[]`)
}

func TestExitWithoutShutdown(t *testing.T) {
	code, _, _ := session(
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	)
	assert.Equal(t, 1, code)
}

func TestClosedStream(t *testing.T) {
	code, _, errOut := session()
	assert.Equal(t, 1, code)
	assert.Empty(t, errOut)
}
