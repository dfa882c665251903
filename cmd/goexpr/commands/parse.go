package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandrolain/goexpr/pkg/ast"
	"github.com/sandrolain/goexpr/pkg/parser"
)

func newParseCommand(g *globalFlags) *cobra.Command {
	var (
		names  []string
		tokens bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "parse EXPRESSION",
		Aliases: []string{"p"},
		Short:   "Print the syntax tree of an expression",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if tokens {
				stream, err := parser.Tokenize(args[0])
				if err != nil {
					return err
				}
				for _, t := range stream.Tokens() {
					fmt.Fprintln(out, t)
				}
				return nil
			}

			el, closer, err := g.language(cmd)
			if err != nil {
				return err
			}
			defer closer()

			parsed, err := el.Parse(args[0], parseNames(names)...)
			if err != nil {
				return err
			}
			if asJSON {
				data, err := ast.MarshalParsed(parsed)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			fmt.Fprintln(out, ast.String(parsed.Root()))
			if dumped, err := ast.Dump(parsed.Root()); err == nil {
				fmt.Fprintln(out, dumped)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&names, "name", "n", nil, "allowed variable, or internal:external alias (repeatable)")
	cmd.Flags().BoolVar(&tokens, "tokens", false, "print the token stream instead of the tree")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	return cmd
}
