//go:build js && wasm

// Command goexpr-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `goexpr` object with the following API:
//
//	goexpr.version()                        → string
//	goexpr.evaluate(expr, valuesJSON)       → resultJSON  (throws on error)
//	goexpr.compile(expr, namesJSON)         → string      (throws on error)
//	goexpr.parse(expr, namesJSON)           → { evaluate(valuesJSON) → resultJSON }  (throws on error)
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o goexpr.wasm ./cmd/wasm/js/
//
// Usage in Node.js:
//
//	const result = goexpr.evaluate('a + b', JSON.stringify({a: 1, b: 2}))
//	console.log(JSON.parse(result)) // 3
package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/goexpr"
	"github.com/sandrolain/goexpr/pkg/ext"
	"github.com/sandrolain/goexpr/pkg/types"
)

var el = goexpr.MustNew(goexpr.WithProviders(ext.Provider()))

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	js.Global().Get("Error").New(msg)
	panic(msg)
}

func decodeValues(fn, s string) map[string]any {
	var values map[string]any
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		jsThrow(fmt.Sprintf("%s: invalid values JSON: %v", fn, err))
	}
	return values
}

func decodeNames(fn string, args []js.Value) []types.Name {
	if len(args) < 2 {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(args[1].String()), &names); err != nil {
		jsThrow(fmt.Sprintf("%s: invalid names JSON: %v", fn, err))
	}
	return types.Names(names...)
}

func encode(fn string, v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		jsThrow(fmt.Sprintf("%s: marshal result: %v", fn, err))
	}
	return string(out)
}

// jsEvaluate implements goexpr.evaluate(expr, valuesJSON) → resultJSON.
func jsEvaluate(_ js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		jsThrow("goexpr.evaluate requires 2 arguments: expression (string) and values (JSON string)")
	}
	result, err := el.Evaluate(args[0].String(), decodeValues("goexpr.evaluate", args[1].String()))
	if err != nil {
		jsThrow(fmt.Sprintf("goexpr.evaluate: %v", err))
	}
	return encode("goexpr.evaluate", result)
}

// jsCompile implements goexpr.compile(expr, namesJSON) → string.
func jsCompile(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("goexpr.compile requires 1 argument: expression (string)")
	}
	src, err := el.Compile(args[0].String(), decodeNames("goexpr.compile", args)...)
	if err != nil {
		jsThrow(fmt.Sprintf("goexpr.compile: %v", err))
	}
	return src
}

// jsParse implements goexpr.parse(expr, namesJSON) → { evaluate(valuesJSON) → resultJSON }.
func jsParse(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("goexpr.parse requires 1 argument: expression (string)")
	}
	parsed, err := el.Parse(args[0].String(), decodeNames("goexpr.parse", args)...)
	if err != nil {
		jsThrow(fmt.Sprintf("goexpr.parse: %v", err))
	}

	evalFn := js.FuncOf(func(_ js.Value, innerArgs []js.Value) interface{} {
		if len(innerArgs) < 1 {
			jsThrow("parsed.evaluate requires 1 argument: values (JSON string)")
		}
		r, e := el.Evaluate(parsed, decodeValues("parsed.evaluate", innerArgs[0].String()))
		if e != nil {
			jsThrow(fmt.Sprintf("parsed.evaluate: %v", e))
		}
		return encode("parsed.evaluate", r)
	})

	return js.ValueOf(map[string]interface{}{"evaluate": evalFn})
}

func main() {
	api := map[string]interface{}{
		"evaluate": js.FuncOf(jsEvaluate),
		"compile":  js.FuncOf(jsCompile),
		"parse":    js.FuncOf(jsParse),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) interface{} {
			return goexpr.Version()
		}),
	}
	js.Global().Set("goexpr", js.ValueOf(api))

	// Block forever; the JS event loop owns execution from here.
	select {}
}
