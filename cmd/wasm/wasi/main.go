//go:build wasip1

// Command goexpr-wasm-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "expression": "<expr>", "values": {<name>: <any JSON value>} }
//	        { "expression": "<expr>", "compile": true, "names": ["a", "b"], "syntax": "php" }
//	stdout: { "result": <any JSON value> }    on success
//	        { "error":  "<message>"       }    on failure (exit code 1)
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o goexpr.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"expression":"user.age >= 18","values":{"user":{"age":21}}}' | wasmtime goexpr.wasm
package main

import (
	"encoding/json"
	"os"

	"github.com/sandrolain/goexpr"
	"github.com/sandrolain/goexpr/pkg/compiler"
	"github.com/sandrolain/goexpr/pkg/ext"
	"github.com/sandrolain/goexpr/pkg/types"
)

type request struct {
	Expression string         `json:"expression"`
	Values     map[string]any `json:"values"`
	Compile    bool           `json:"compile"`
	Names      []string       `json:"names"`
	Syntax     string         `json:"syntax"`
}

type response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func writeResponse(r response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}

	syntax, ok := compiler.SyntaxByName(req.Syntax)
	if !ok {
		writeResponse(response{Error: "unknown syntax: " + req.Syntax}, 1)
	}
	el, err := goexpr.New(
		goexpr.WithProviders(ext.Provider()),
		goexpr.WithSyntax(syntax),
		goexpr.WithCache(nil),
	)
	if err != nil {
		writeResponse(response{Error: err.Error()}, 1)
	}

	var result any
	if req.Compile {
		result, err = el.Compile(req.Expression, types.Names(req.Names...)...)
	} else {
		result, err = el.Evaluate(req.Expression, req.Values)
	}
	if err != nil {
		writeResponse(response{Error: err.Error()}, 1)
	}

	writeResponse(response{Result: result}, 0)
}
