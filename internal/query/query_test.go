package query_test

import (
	"math/rand/v2"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/searchctx/internal/query"
)

func TestHasContextToken_HappyPath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name string
		q    string
	}{
		{"bare token", "context:global"},
		{"token after pattern", "foo context:@alice"},
		{"token before pattern", "context:@acme/backend func main"},
		{"uppercase key", "CONTEXT:global foo"},
		{"mixed case key", "Context:global"},
		{"double quoted value", `context:"@alice/my context" foo`},
		{"single quoted value", `context:'@alice' foo`},
		{"escaped quote in value", `context:"a\"b"`},
		{"empty value", "context: foo"},
		{"inside parentheses", "(context:global or repo:x)"},
		{"tab separated", "foo\tcontext:global"},
		{"value with colon", "context:a:b"},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(query.HasContextToken(tc.q), qt.IsTrue)
		})
	}
}

func TestHasContextToken_Absent(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name string
		q    string
	}{
		{"empty query", ""},
		{"whitespace only", "   \t\n"},
		{"plain pattern", "func main"},
		{"other filter", "repo:github.com/foo lang:go"},
		{"quoted pattern containing token", `"context:global"`},
		{"negated filter", "-context:global foo"},
		{"NOT keyword negates", "NOT context:global"},
		{"not keyword lowercase", "not context:global"},
		{"unterminated quoted value", `context:"global`},
		{"quoted value glued to text", `context:"global"foo`},
		{"key without colon", "context global"},
		{"key as suffix", "mycontext:foo"},
		{"key prefix only", "contexts:foo"},
		{"colon first", ":context"},
		{"lone dash", "-"},
		{"trailing backslash in quote", `context:"abc\`},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(query.HasContextToken(tc.q), qt.IsFalse)
		})
	}
}

func TestFilters_Values(t *testing.T) {
	c := qt.New(t)

	got := query.Filters(`repo:foo -file:bar context:"@alice/x y" (lang:go)`)
	c.Assert(got, qt.DeepEquals, []query.Filter{
		{Field: "repo", Value: "foo"},
		{Field: "file", Value: "bar", Negated: true},
		{Field: "context", Value: "@alice/x y"},
		{Field: "lang", Value: "go"},
	})
}

func TestFilterExists_OtherFields(t *testing.T) {
	c := qt.New(t)
	c.Assert(query.FilterExists("repo:foo", "REPO"), qt.IsTrue)
	c.Assert(query.FilterExists("repo:foo", "context"), qt.IsFalse)
}

func TestHasContextToken_GarbageNeverPanics(t *testing.T) {
	alphabet := []byte(`context:"'\()- NOTnot@/` + "\t\n\x00\xff")
	r := rand.New(rand.NewPCG(1, 2))
	for range 5000 {
		n := r.IntN(40)
		b := make([]byte, n)
		for i := range b {
			if r.IntN(4) == 0 {
				b[i] = byte(r.IntN(256))
			} else {
				b[i] = alphabet[r.IntN(len(alphabet))]
			}
		}
		_ = query.HasContextToken(string(b))
	}
}

func FuzzHasContextToken(f *testing.F) {
	for _, seed := range []string{"", "context:x", `context:"x`, `"context:x"`, "-context:", "not context:a", "(((", `\`} {
		f.Add(seed)
	}
	f.Fuzz(func(_ *testing.T, q string) {
		query.HasContextToken(q)
	})
}
