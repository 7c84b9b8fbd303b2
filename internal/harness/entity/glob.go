package entity

import (
	"strings"

	"github.com/tidwall/match"
)

// matchGlob reports whether name matches pattern, where '*' matches any run
// of characters and '?' exactly one. Backslashes in entity names are literal.
func matchGlob(pattern, name string) bool {
	return match.Match(name, strings.ReplaceAll(pattern, `\`, `\\`))
}

// namePattern is one parsed entry of Filter.Names.
type namePattern struct {
	segments []string
}

func compileNames(names []string, caseSensitive bool) []namePattern {
	out := make([]namePattern, 0, len(names))
	for _, n := range names {
		if !caseSensitive {
			n = strings.ToLower(n)
		}
		out = append(out, namePattern{segments: strings.Split(n, "|")})
	}
	return out
}

// match tests the chain of names from the walk root down to the entity. A
// root based pattern must cover the whole chain; otherwise it matches the
// tail of the chain.
func (p namePattern) match(chain []string, rootBased bool) bool {
	k := len(p.segments)
	if k > len(chain) || (rootBased && k != len(chain)) {
		return false
	}
	tail := chain[len(chain)-k:]
	for i, seg := range p.segments {
		if !matchGlob(seg, tail[i]) {
			return false
		}
	}
	return true
}
