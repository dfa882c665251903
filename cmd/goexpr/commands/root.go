// Package commands implements the goexpr command line.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sandrolain/goexpr"
	"github.com/sandrolain/goexpr/pkg/compiler"
	"github.com/sandrolain/goexpr/pkg/config"
	"github.com/sandrolain/goexpr/pkg/ext"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	syntax     string
	noExt      bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "goexpr",
		Short:         "Evaluate and compile expressions",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&g.syntax, "syntax", "", "compile target: cel or php (overrides the config)")
	rootCmd.PersistentFlags().BoolVar(&g.noExt, "no-ext", false, "do not register the extension functions")

	rootCmd.AddCommand(
		newEvalCommand(g),
		newCompileCommand(g),
		newParseCommand(g),
		newLintCommand(g),
		newVersionCommand(),
	)

	return rootCmd
}

// language builds the ExpressionLanguage described by the flags. The
// returned function releases the cache.
func (g *globalFlags) language(cmd *cobra.Command) (*goexpr.ExpressionLanguage, func() error, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	if g.syntax != "" {
		cfg.Compiler.Syntax = g.syntax
		if _, ok := compiler.SyntaxByName(g.syntax); !ok {
			return nil, nil, fmt.Errorf("unknown syntax %q", g.syntax)
		}
	}

	logger := cfg.Logger(cmd.ErrOrStderr())
	opts, closer, err := cfg.Options(logger)
	if err != nil {
		return nil, nil, err
	}
	if !g.noExt {
		opts = append(opts, goexpr.WithProviders(ext.Provider()))
	}

	el, err := goexpr.New(opts...)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}
	logger.Debug("expression language ready",
		slog.String("syntax", cfg.Compiler.Syntax),
		slog.String("cache", cfg.Cache.Backend),
	)
	return el, closer, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), goexpr.Version())
		},
	}
}
