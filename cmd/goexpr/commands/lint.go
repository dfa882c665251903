package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLintCommand(g *globalFlags) *cobra.Command {
	var names []string

	cmd := &cobra.Command{
		Use:   "lint EXPRESSION",
		Short: "Check an expression for syntax errors",
		Long:  `Check an expression for syntax errors. Without --name, any variable is accepted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			el, closer, err := g.language(cmd)
			if err != nil {
				return err
			}
			defer closer()

			var allowed = parseNames(names)
			if len(names) == 0 {
				allowed = nil
			}
			if err := el.Lint(args[0], allowed); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&names, "name", "n", nil, "allowed variable, or internal:external alias (repeatable)")
	return cmd
}
