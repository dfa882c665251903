// Package ext bundles the optional function providers.
//
// The functions live in sub-packages grouped by category:
//   - extstring  – lower, upper, trim, length, slug, join, replace, …
//   - extnumeric – abs, ceil, floor, round, sqrt, log, clamp, …
//   - extcrypto  – uuid, hash, hmac
//
// # Integration – all providers at once
//
//	el := goexpr.New(goexpr.WithProviders(ext.Provider()))
//
// # Integration – by category
//
//	el := goexpr.New(goexpr.WithProviders(extstring.Provider(), extcrypto.Provider()))
package ext

import (
	"github.com/sandrolain/goexpr/pkg/ext/extcrypto"
	"github.com/sandrolain/goexpr/pkg/ext/extnumeric"
	"github.com/sandrolain/goexpr/pkg/ext/extstring"
	"github.com/sandrolain/goexpr/pkg/functions"
)

// All returns every extension function.
func All() []functions.Function {
	var all []functions.Function
	all = append(all, extstring.All()...)
	all = append(all, extnumeric.All()...)
	all = append(all, extcrypto.All()...)
	return all
}

// Provider exposes All for bulk registration.
func Provider() functions.Provider {
	return functions.ProviderFunc(All)
}

// Providers returns one provider per category, keyed by category name.
func Providers() map[string]functions.Provider {
	return map[string]functions.Provider{
		"string":  extstring.Provider(),
		"numeric": extnumeric.Provider(),
		"crypto":  extcrypto.Provider(),
	}
}
