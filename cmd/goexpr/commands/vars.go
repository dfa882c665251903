package commands

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/goexpr/pkg/types"
)

// loadValues merges the variables of a YAML file with key=value pairs.
// Pair values are decoded as YAML scalars, so "n=3" binds an int and
// "s=abc" a string.
func loadValues(path string, pairs []string) (map[string]any, error) {
	values := make(map[string]any)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read variables: %w", err)
		}
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("decode variables %s: %w", path, err)
		}
	}
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q, expected name=value", pair)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode variable %s: %w", name, err)
		}
		values[name] = v
	}
	return values, nil
}

// parseNames turns "name" and "internal:external" flags into names.
func parseNames(flags []string) []types.Name {
	names := make([]types.Name, 0, len(flags))
	for _, f := range flags {
		if internal, external, ok := strings.Cut(f, ":"); ok {
			names = append(names, types.Alias(internal, external))
			continue
		}
		names = append(names, types.N(f))
	}
	return names
}
