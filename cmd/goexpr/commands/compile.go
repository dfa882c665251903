package commands

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sandrolain/goexpr/pkg/types"
)

func newCompileCommand(g *globalFlags) *cobra.Command {
	var (
		names    []string
		run      bool
		varsFile string
		pairs    []string
	)

	cmd := &cobra.Command{
		Use:     "compile EXPRESSION",
		Aliases: []string{"c"},
		Short:   "Compile an expression to host source text",
		Long: `Compile an expression to host source text.

With --run the expression is compiled to CEL and executed with cel-go
against the variables given by --vars and --var; the result is printed
as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			el, closer, err := g.language(cmd)
			if err != nil {
				return err
			}
			defer closer()

			if !run {
				src, err := el.Compile(args[0], parseNames(names)...)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), src)
				return nil
			}

			values, err := loadValues(varsFile, pairs)
			if err != nil {
				return err
			}
			allowed := parseNames(names)
			if len(names) == 0 {
				keys := make([]string, 0, len(values))
				for k := range values {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				allowed = types.Names(keys...)
			}

			prg, err := el.Program(args[0], allowed...)
			if err != nil {
				return err
			}
			result, err := prg.Eval(values)
			if err != nil {
				return err
			}
			out, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&names, "name", "n", nil, "allowed variable, or internal:external alias (repeatable)")
	cmd.Flags().BoolVar(&run, "run", false, "compile to CEL and execute the result with cel-go")
	cmd.Flags().StringVarP(&varsFile, "vars", "f", "", "YAML file with the variables (with --run)")
	cmd.Flags().StringArrayVar(&pairs, "var", nil, "variable as name=value (repeatable, with --run)")
	return cmd
}
