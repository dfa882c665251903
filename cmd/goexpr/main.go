// Command goexpr evaluates, compiles and inspects expressions from the
// command line.
//
//	goexpr eval 'user.age >= 18' --vars user.yaml
//	goexpr eval 'a * b' --var a=3 --var b=4
//	goexpr compile 'a?.b ?? "none"' --name a --syntax php
//	goexpr parse '1 + 2 * 3'
//	goexpr lint 'foo.bar(' --name foo
package main

import (
	"os"

	"github.com/sandrolain/goexpr/cmd/goexpr/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
