package ast

import (
	"regexp"
	"strings"
	"sync"

	"github.com/sandrolain/goexpr/pkg/types"
)

// patterns memoizes compiled patterns for the matches operator.
var patterns sync.Map // string -> *regexp.Regexp

// closingDelimiters pairs bracket-style delimiters.
var closingDelimiters = map[byte]byte{
	'(': ')',
	'[': ']',
	'{': '}',
	'<': '>',
}

// ConvertPattern turns a delimited pattern such as "/^foo$/i" into RE2
// syntax, moving the modifiers into a leading (?flags) group. Supported
// modifiers are i, m, s and U; x and u are accepted and ignored.
func ConvertPattern(pattern string) (string, error) {
	if len(pattern) < 2 {
		return "", invalidPattern(pattern, "missing delimiter")
	}
	open := pattern[0]
	if isAlnum(open) || open == '\\' || open == ' ' {
		return "", invalidPattern(pattern, "delimiter must not be alphanumeric, backslash or space")
	}
	end := open
	if c, ok := closingDelimiters[open]; ok {
		end = c
	}
	last := strings.LastIndexByte(pattern, end)
	if last <= 0 {
		return "", invalidPattern(pattern, "no ending delimiter")
	}

	body, mods := pattern[1:last], pattern[last+1:]
	var flags strings.Builder
	for i := 0; i < len(mods); i++ {
		switch m := mods[i]; m {
		case 'i', 'm', 's', 'U':
			flags.WriteByte(m)
		case 'x', 'u':
		default:
			return "", invalidPattern(pattern, "unknown modifier '"+string(m)+"'")
		}
	}
	if flags.Len() > 0 {
		body = "(?" + flags.String() + ")" + body
	}
	if _, err := regexp.Compile(body); err != nil {
		return "", invalidPattern(pattern, err.Error())
	}
	return body, nil
}

// compilePattern converts and compiles a delimited pattern, caching the
// result.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	body, err := ConvertPattern(pattern)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(body)
	patterns.Store(pattern, re)
	return re, nil
}

func invalidPattern(pattern, reason string) error {
	return types.NewRuntimeError("Invalid regular expression %q: %s", pattern, reason)
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
