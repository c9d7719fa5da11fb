package usergroup

import (
	"testing"

	"userbot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		expr string
		want *Group
	}{
		{expr: "admins", want: &Group{Name: "admins"}},
		{expr: " g1[exclude=1,2] ", want: &Group{Name: "g1", Exclude: []Value{{Kind: ValueID, ID: 1}, {Kind: ValueID, ID: 2}}}},
		{
			expr: "g1[exclude=1;include=1]",
			want: &Group{Name: "g1", Exclude: []Value{{Kind: ValueID, ID: 1}}, Include: []Value{{Kind: ValueID, ID: 1}}},
		},
		{
			expr: "friends[include=@Bob,-100123;exclude=old[include=7]]",
			want: &Group{
				Name:    "friends",
				Include: []Value{{Kind: ValueUsername, Username: "Bob"}, {Kind: ValueID, ID: -100123}},
				Exclude: []Value{{Kind: ValueGroup, Group: &Group{Name: "old", Include: []Value{{Kind: ValueID, ID: 7}}}}},
			},
		},
		{
			expr: "a[exclude=1;exclude=2]",
			want: &Group{Name: "a", Exclude: []Value{{Kind: ValueID, ID: 1}, {Kind: ValueID, ID: 2}}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			g, err := Parse(tc.expr)

			require.NoError(t, err)
			assert.Equal(t, tc.want, g)
		})
	}
}

func TestParseString(t *testing.T) {
	g, err := Parse("a[exclude=1;include=b[exclude=@x];exclude=2]")
	require.NoError(t, err)

	assert.Equal(t, "a[exclude=1,2;include=b[exclude=@x]]", g.String())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		expr string
		pos  int
	}{
		{expr: "", pos: 0},
		{expr: "123", pos: 0},
		{expr: "g[", pos: 2},
		{expr: "g[only=1]", pos: 6},
		{expr: "g[exclude 1]", pos: 9},
		{expr: "g[exclude=1", pos: 11},
		{expr: "g[exclude=@]", pos: 11},
		{expr: "g[exclude=1]x", pos: 12},
		{expr: "g x", pos: 1},
	}

	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			_, err := Parse(tc.expr)

			require.ErrorIs(t, err, domain.ErrGrammar)
			var grammarErr *GrammarError
			require.ErrorAs(t, err, &grammarErr)
			assert.Equal(t, tc.pos, grammarErr.Pos)
		})
	}
}
