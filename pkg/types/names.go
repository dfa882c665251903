package types

// Name is a variable name that may appear free in an expression.
//
// External is the spelling used inside the expression; Internal is the
// name used by compiled code and by the Name node. For a bare name both
// are equal. For instance Alias("this", "container") lets users write
// "container" while the generated code refers to "this".
type Name struct {
	Internal string
	External string
}

// N returns a bare name.
func N(name string) Name {
	return Name{Internal: name, External: name}
}

// Alias returns a name used as external in expressions and as internal
// in the parsed tree.
func Alias(internal, external string) Name {
	return Name{Internal: internal, External: external}
}

// Names converts bare names to a Name slice.
func Names(names ...string) []Name {
	out := make([]Name, len(names))
	for i, n := range names {
		out[i] = N(n)
	}
	return out
}

// IsAlias reports whether the internal and external spellings differ.
func (n Name) IsAlias() bool {
	return n.Internal != n.External
}

// String returns the cache-key form: "name" or "internal:external".
func (n Name) String() string {
	if n.IsAlias() {
		return n.Internal + ":" + n.External
	}
	return n.External
}
