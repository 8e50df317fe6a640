// Package matcher matches building names against the glob or regex patterns
// accepted by the view name filter. Matching ignores case.
package matcher

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Kind is the syntax a pattern was compiled as.
type Kind int

const (
	// Glob uses shell-style patterns (*, ?, []).
	Glob Kind = iota
	// Regex uses regular expressions, unanchored.
	Regex
)

func (k Kind) String() string {
	if k == Regex {
		return "regex"
	}
	return "glob"
}

// regexOnly lists syntax that never appears in a glob.
var regexOnly = []string{"^", "$", `\d`, `\w`, `\s`, "(?", "{", "}", "+", "|", "(", ")"}

// Pattern is one compiled name pattern. It is immutable after Compile.
type Pattern struct {
	raw  string
	kind Kind
	glob string
	re   *regexp.Regexp
}

// Compile compiles raw as a regex when it carries regex-only syntax and as a
// glob otherwise.
func Compile(raw string) (*Pattern, error) {
	p := &Pattern{raw: raw, kind: kindOf(raw)}

	if p.kind == Regex {
		re, err := regexp.Compile("(?i)" + raw)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", raw, err)
		}
		p.re = re
		return p, nil
	}

	p.glob = strings.ToLower(raw)
	if _, err := path.Match(p.glob, ""); err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", raw, err)
	}
	return p, nil
}

// Match reports whether name matches the pattern.
func (p *Pattern) Match(name string) bool {
	if p.kind == Regex {
		return p.re.MatchString(name)
	}
	ok, _ := path.Match(p.glob, strings.ToLower(name))
	return ok
}

// Kind returns the syntax the pattern was compiled as.
func (p *Pattern) Kind() Kind { return p.kind }

func (p *Pattern) String() string { return p.raw }

func kindOf(raw string) Kind {
	for _, s := range regexOnly {
		if strings.Contains(raw, s) {
			return Regex
		}
	}
	return Glob
}

// Set matches when any of its patterns matches. An empty Set matches
// everything.
type Set []*Pattern

// NewSet compiles every pattern, failing on the first invalid one.
func NewSet(raws []string) (Set, error) {
	set := make(Set, 0, len(raws))
	for _, raw := range raws {
		p, err := Compile(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		set = append(set, p)
	}
	return set, nil
}

// Match reports whether any pattern matches name.
func (s Set) Match(name string) bool {
	if len(s) == 0 {
		return true
	}
	for _, p := range s {
		if p.Match(name) {
			return true
		}
	}
	return false
}

// Patterns returns the source patterns in order.
func (s Set) Patterns() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.raw
	}
	return out
}
