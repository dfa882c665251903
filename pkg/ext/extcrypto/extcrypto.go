// Package extcrypto provides identifier and hashing functions for
// expressions.
//
// Security note: MD5 and SHA-1 are provided for compatibility/fingerprinting only
// and should NOT be used for cryptographic security purposes.
package extcrypto

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // intentional: provided for non-security fingerprinting
	"crypto/sha1" //nolint:gosec // intentional
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/google/uuid"

	"github.com/sandrolain/goexpr/pkg/functions"
	"github.com/sandrolain/goexpr/pkg/types"
)

// All returns every crypto function.
func All() []functions.Function {
	return []functions.Function{
		UUID(),
		Hash(),
		HMAC(),
	}
}

// Provider exposes All for bulk registration.
func Provider() functions.Provider {
	return functions.ProviderFunc(All)
}

// UUID returns the definition for uuid(), a random version 4 UUID.
func UUID() functions.Function {
	return functions.Function{
		Name:     "uuid",
		Compiler: functions.Call("uuid"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) != 0 {
				return nil, types.NewRuntimeError("uuid() expects no arguments, %d given", len(args))
			}
			id, err := uuid.NewRandom()
			if err != nil {
				return nil, types.NewRuntimeError("uuid(): %v", err).WithCause(err)
			}
			return id.String(), nil
		},
	}
}

// Hash returns the definition for hash(str, algorithm).
// Supported algorithms: "md5", "sha1", "sha256", "sha384", "sha512".
// Returns a lowercase hex-encoded digest.
func Hash() functions.Function {
	return functions.Function{
		Name:     "hash",
		Compiler: functions.Call("hash"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			s, err := strings2("hash", args)
			if err != nil {
				return nil, err
			}
			h, err := newHasher(s[1])
			if err != nil {
				return nil, types.NewRuntimeError("hash(): %v", err)
			}
			h.Write([]byte(s[0]))
			return hex.EncodeToString(h.Sum(nil)), nil
		},
	}
}

// HMAC returns the definition for hmac(str, key, algorithm).
func HMAC() functions.Function {
	return functions.Function{
		Name:     "hmac",
		Compiler: functions.Call("hmac"),
		Evaluator: func(_ map[string]any, args ...any) (any, error) {
			if len(args) != 3 {
				return nil, types.NewRuntimeError("hmac() expects 3 arguments, %d given", len(args))
			}
			s, err := strings2("hmac", args[:2])
			if err != nil {
				return nil, err
			}
			algorithm, ok := args[2].(string)
			if !ok {
				return nil, types.NewRuntimeError("hmac() expects a string as argument 3, %T given", args[2])
			}
			if _, err := newHasher(algorithm); err != nil {
				return nil, types.NewRuntimeError("hmac(): %v", err)
			}
			mac := hmac.New(func() hash.Hash {
				h, _ := newHasher(algorithm)
				return h
			}, []byte(s[1]))
			mac.Write([]byte(s[0]))
			return hex.EncodeToString(mac.Sum(nil)), nil
		},
	}
}

func strings2(name string, args []any) ([2]string, error) {
	var out [2]string
	if len(args) != 2 {
		return out, types.NewRuntimeError("%s() expects 2 arguments, %d given", name, len(args))
	}
	for i, a := range args {
		s, ok := a.(string)
		if !ok {
			return out, types.NewRuntimeError("%s() expects a string as argument %d, %T given", name, i+1, a)
		}
		out[i] = s
	}
	return out, nil
}

func newHasher(algorithm string) (hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "md5":
		return md5.New(), nil //nolint:gosec
	case "sha1":
		return sha1.New(), nil //nolint:gosec
	case "sha256":
		return sha256.New(), nil
	case "sha384":
		return sha512.New384(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, types.NewRuntimeError("unsupported algorithm %q; use md5, sha1, sha256, sha384, or sha512", algorithm)
	}
}
