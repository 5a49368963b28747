// Package query scans free-text search queries for filter tokens.
//
// Only the subset of the query language needed to answer "is filter X
// present" is understood: whitespace-separated tokens, parentheses as
// delimiters, quoted patterns, `field:value` filters with quoted or unquoted
// values, and negation by `-field:` or a preceding `NOT` keyword.
package query

import "strings"

// FieldContext is the filter field that selects a search context.
const FieldContext = "context"

// Filter is a single `field:value` token found in a query.
type Filter struct {
	Field   string // lowercased
	Value   string // unquoted value; escapes resolved
	Negated bool
}

// HasContextToken reports whether q already selects a search context via a
// non-negated `context:` filter.
func HasContextToken(q string) bool {
	return FilterExists(q, FieldContext)
}

// FilterExists reports whether q contains a well-formed, non-negated filter
// whose field equals field (case-insensitive). It never panics; malformed
// input simply yields false.
func FilterExists(q, field string) bool {
	field = strings.ToLower(field)
	for _, f := range Filters(q) {
		if f.Field == field && !f.Negated {
			return true
		}
	}
	return false
}

// Filters returns every well-formed filter token in q, in order.
// Tokens with an unterminated quoted value are dropped.
func Filters(q string) []Filter {
	s := scanner{src: q}
	var out []Filter
	negateNext := false
	for {
		s.skipDelims()
		if s.eof() {
			return out
		}
		switch c := s.peek(); {
		case c == '"' || c == '\'':
			s.quoted(c)
			negateNext = false
		default:
			f, ok, word := s.filterOrWord()
			if ok {
				f.Negated = f.Negated || negateNext
				out = append(out, f)
				negateNext = false
				continue
			}
			negateNext = strings.EqualFold(word, "not")
		}
	}
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) eof() bool  { return s.pos >= len(s.src) }
func (s *scanner) peek() byte { return s.src[s.pos] }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDelim(c byte) bool { return isSpace(c) || c == '(' || c == ')' }

func isFieldStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isFieldChar(c byte) bool {
	return isFieldStart(c) || (c >= '0' && c <= '9') || c == '_'
}

func (s *scanner) skipDelims() {
	for !s.eof() && isDelim(s.peek()) {
		s.pos++
	}
}

// quoted consumes a quoted string starting at the opening delimiter and
// returns its unescaped contents. ok is false when the closing delimiter is
// missing, in which case the rest of the input is consumed.
func (s *scanner) quoted(delim byte) (value string, ok bool) {
	s.pos++ // opening delimiter
	var sb strings.Builder
	for !s.eof() {
		c := s.peek()
		switch {
		case c == '\\':
			s.pos++
			if s.eof() {
				return sb.String(), false
			}
			sb.WriteByte(s.peek())
		case c == delim:
			s.pos++
			return sb.String(), true
		default:
			sb.WriteByte(c)
		}
		s.pos++
	}
	return sb.String(), false
}

// word consumes up to the next delimiter.
func (s *scanner) word() string {
	start := s.pos
	for !s.eof() && !isDelim(s.peek()) {
		s.pos++
	}
	return s.src[start:s.pos]
}

// filterOrWord tries to read a filter at the current position. When the
// token is not a filter, the whole token is consumed and returned as word.
func (s *scanner) filterOrWord() (f Filter, ok bool, word string) {
	start := s.pos
	i := s.pos
	negated := false
	if s.src[i] == '-' {
		negated = true
		i++
	}
	fieldStart := i
	if i < len(s.src) && isFieldStart(s.src[i]) {
		for i < len(s.src) && isFieldChar(s.src[i]) {
			i++
		}
	}
	if i == fieldStart || i >= len(s.src) || s.src[i] != ':' {
		s.pos = start
		return Filter{}, false, s.word()
	}

	field := strings.ToLower(s.src[fieldStart:i])
	s.pos = i + 1

	if !s.eof() && (s.peek() == '"' || s.peek() == '\'') {
		value, closed := s.quoted(s.peek())
		if !closed {
			return Filter{}, false, ""
		}
		// A quoted value must end the token.
		if !s.eof() && !isDelim(s.peek()) {
			s.word()
			return Filter{}, false, ""
		}
		return Filter{Field: field, Value: value, Negated: negated}, true, ""
	}

	value := s.word()
	return Filter{Field: field, Value: value, Negated: negated}, true, ""
}
