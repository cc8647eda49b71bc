package sema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agentic-research/tmplcheck/internal/ast"
)

// PatternInfo is what the checker needs to know about a string pattern.
type PatternInfo struct {
	// MinLength is the length of the shortest string the pattern matches.
	MinLength int
	// AnyOrNone: the pattern contains `*' or another unbounded repetition.
	AnyOrNone bool
}

var errPatternEnd = errors.New("unexpected end of pattern")

// BinaryPatternInfo analyses a bitstring, hexstring or octetstring pattern.
// Lengths are counted in bits, hex digits and octets respectively.
func BinaryPatternInfo(kind ast.Kind, text string) (PatternInfo, error) {
	var info PatternInfo
	pendingNibble := false
	for _, r := range text {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			continue
		case r == '*':
			if pendingNibble {
				return info, errors.New("wildcard in the middle of an octet in octetstring pattern")
			}
			info.AnyOrNone = true
		case r == '?':
			if pendingNibble {
				return info, errors.New("wildcard in the middle of an octet in octetstring pattern")
			}
			info.MinLength++
		case kind == ast.KindBitStringPattern:
			if r != '0' && r != '1' {
				return info, fmt.Errorf("invalid character `%c' in bitstring pattern", r)
			}
			info.MinLength++
		case isHexDigit(r):
			if kind == ast.KindOctetStringPattern {
				if pendingNibble {
					info.MinLength++
				}
				pendingNibble = !pendingNibble
				continue
			}
			info.MinLength++
		default:
			return info, fmt.Errorf("invalid character `%c' in %s", r, kind.TemplateTypeName())
		}
	}
	if pendingNibble {
		return info, errors.New("odd number of hexadecimal digits in octetstring pattern")
	}
	return info, nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// CharPatternInfo analyses a character string pattern: `?', `*', sets
// `[...]', references `{...}', groups with alternatives `(a|b)',
// repetitions `#n', `#(n,m)', `+' and backslash escapes.
func CharPatternInfo(text string) (PatternInfo, error) {
	p := &charPattern{src: []rune(text)}
	min, unbounded, err := p.alternatives()
	if err != nil {
		return PatternInfo{}, err
	}
	if p.pos < len(p.src) {
		return PatternInfo{}, fmt.Errorf("unmatched `%c' in character string pattern", p.src[p.pos])
	}
	return PatternInfo{MinLength: min, AnyOrNone: unbounded}, nil
}

type charPattern struct {
	src []rune
	pos int
}

func (p *charPattern) peek() (rune, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

// alternatives parses a|b|c and returns the shortest branch.
func (p *charPattern) alternatives() (int, bool, error) {
	min, unbounded, err := p.sequence()
	if err != nil {
		return 0, false, err
	}
	for {
		r, ok := p.peek()
		if !ok || r != '|' {
			return min, unbounded, nil
		}
		p.pos++
		m, u, err := p.sequence()
		if err != nil {
			return 0, false, err
		}
		if m < min {
			min = m
		}
		unbounded = unbounded || u
	}
}

func (p *charPattern) sequence() (int, bool, error) {
	total, unbounded := 0, false
	for {
		r, ok := p.peek()
		if !ok || r == '|' || r == ')' {
			return total, unbounded, nil
		}
		min, u, err := p.atom()
		if err != nil {
			return 0, false, err
		}
		min, u, err = p.repeat(min, u)
		if err != nil {
			return 0, false, err
		}
		total += min
		unbounded = unbounded || u
	}
}

func (p *charPattern) atom() (int, bool, error) {
	r := p.src[p.pos]
	p.pos++
	switch r {
	case '*':
		return 0, true, nil
	case '?':
		return 1, false, nil
	case '\\':
		return p.escape()
	case '[':
		return 1, false, p.set()
	case '{':
		if err := p.until('}'); err != nil {
			return 0, false, err
		}
		// The referenced pattern is not known here.
		return 0, true, nil
	case '(':
		min, u, err := p.alternatives()
		if err != nil {
			return 0, false, err
		}
		if r, ok := p.peek(); !ok || r != ')' {
			return 0, false, errors.New("unterminated group in character string pattern")
		}
		p.pos++
		return min, u, nil
	case ']', '}':
		return 0, false, fmt.Errorf("unmatched `%c' in character string pattern", r)
	case '#', '+':
		return 0, false, fmt.Errorf("`%c' without a preceding expression in character string pattern", r)
	}
	return 1, false, nil
}

func (p *charPattern) escape() (int, bool, error) {
	r, ok := p.peek()
	if !ok {
		return 0, false, errPatternEnd
	}
	p.pos++
	if r == 'N' || r == 'q' {
		if next, ok := p.peek(); ok && next == '{' {
			p.pos++
			if err := p.until('}'); err != nil {
				return 0, false, err
			}
		}
	}
	return 1, false, nil
}

func (p *charPattern) set() error {
	if r, ok := p.peek(); ok && r == '^' {
		p.pos++
	}
	empty := true
	for {
		r, ok := p.peek()
		if !ok {
			return errors.New("unterminated set expression in character string pattern")
		}
		p.pos++
		switch r {
		case ']':
			if empty {
				return errors.New("empty set expression in character string pattern")
			}
			return nil
		case '\\':
			if _, ok := p.peek(); !ok {
				return errPatternEnd
			}
			p.pos++
		}
		empty = false
	}
}

func (p *charPattern) until(end rune) error {
	for p.pos < len(p.src) {
		if p.src[p.pos] == end {
			p.pos++
			return nil
		}
		p.pos++
	}
	return fmt.Errorf("missing `%c' in character string pattern", end)
}

// repeat applies a trailing `+', `#n' or `#(n,m)' to an atom of length min.
func (p *charPattern) repeat(min int, unbounded bool) (int, bool, error) {
	r, ok := p.peek()
	if !ok {
		return min, unbounded, nil
	}
	switch r {
	case '+':
		p.pos++
		return min, true, nil
	case '#':
		p.pos++
	default:
		return min, unbounded, nil
	}

	next, ok := p.peek()
	if !ok {
		return 0, false, errPatternEnd
	}
	if next >= '0' && next <= '9' {
		p.pos++
		return min * int(next-'0'), unbounded, nil
	}
	if next != '(' {
		return 0, false, fmt.Errorf("invalid repetition `#%c' in character string pattern", next)
	}
	p.pos++
	start := p.pos
	if err := p.until(')'); err != nil {
		return 0, false, err
	}
	body := strings.TrimSpace(string(p.src[start : p.pos-1]))
	lo, hi, hasHi, err := parseRepetition(body)
	if err != nil {
		return 0, false, err
	}
	if hasHi && hi < lo {
		return 0, false, fmt.Errorf("invalid repetition `#(%s)': upper bound is smaller than lower bound", body)
	}
	return min * lo, unbounded || !hasHi, nil
}

func parseRepetition(body string) (lo, hi int, hasHi bool, err error) {
	bound := func(s string) (int, error) {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid repetition bound `%s' in character string pattern", s)
		}
		return n, nil
	}
	before, after, isRange := strings.Cut(body, ",")
	if !isRange {
		n, err := bound(body)
		return n, n, true, err
	}
	if strings.TrimSpace(before) != "" {
		if lo, err = bound(before); err != nil {
			return 0, 0, false, err
		}
	}
	if strings.TrimSpace(after) == "" {
		return lo, 0, false, nil
	}
	if hi, err = bound(after); err != nil {
		return 0, 0, false, err
	}
	return lo, hi, true, nil
}
