package suite

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

// RandomValue is the vars value that requests a per-run random token.
const RandomValue = "random"

const randomTokenLength = 6

var placeholderRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// Substitute replaces every ${name} placeholder whose name is in vars. Unknown
// placeholders are left as literal text and substituted values are not rescanned.
func Substitute(s string, vars map[string]string) string {
	if s == "" || len(vars) == 0 {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := m[2 : len(m)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}

// RandomToken returns a short lowercase token used for "random" vars.
func RandomToken() string {
	var b strings.Builder
	b.Grow(randomTokenLength)
	for range randomTokenLength {
		b.WriteByte(byte('a' + rand.IntN(26)))
	}
	return b.String()
}
