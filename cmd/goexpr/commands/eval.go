package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newEvalCommand(g *globalFlags) *cobra.Command {
	var (
		varsFile string
		pairs    []string
		output   string
	)

	cmd := &cobra.Command{
		Use:     "eval EXPRESSION",
		Aliases: []string{"e"},
		Short:   "Evaluate an expression",
		Long:    `Evaluate an expression against variables read from a YAML file and/or --var flags.`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := loadValues(varsFile, pairs)
			if err != nil {
				return err
			}
			el, closer, err := g.language(cmd)
			if err != nil {
				return err
			}
			defer closer()

			result, err := el.Evaluate(args[0], values)
			if err != nil {
				return err
			}

			var out []byte
			switch output {
			case "json":
				out, err = json.Marshal(result)
			case "yaml":
				out, err = yaml.Marshal(result)
			default:
				return fmt.Errorf("unknown output format %q", output)
			}
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&varsFile, "vars", "f", "", "YAML file with the variables")
	cmd.Flags().StringArrayVar(&pairs, "var", nil, "variable as name=value (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}
