package condition

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want Node
	}{
		{
			name: "numeric compare",
			expr: "amount >= 50000",
			want: Compare{Field: "amount", Op: OpGte, Value: 50000.0},
		},
		{
			name: "in with single quotes",
			expr: "status in ['Resolved','Closed']",
			want: In{Field: "status", Set: []Literal{"Resolved", "Closed"}},
		},
		{
			name: "implicit and by juxtaposition",
			expr: `stage == "new" amount < 10`,
			want: And{Children: []Node{
				Compare{Field: "stage", Op: OpEq, Value: "new"},
				Compare{Field: "amount", Op: OpLt, Value: 10.0},
			}},
		},
		{
			name: "explicit connectors",
			expr: "a.b != null AND flag == true && score > -1.5",
			want: And{Children: []Node{
				Compare{Field: "a.b", Op: OpNe, Value: nil},
				Compare{Field: "flag", Op: OpEq, Value: true},
				Compare{Field: "score", Op: OpGt, Value: -1.5},
			}},
		},
		{
			name: "no spaces",
			expr: "amount<=5",
			want: Compare{Field: "amount", Op: OpLte, Value: 5.0},
		},
		{
			name: "escaped quote",
			expr: `name == 'O\'Brien'`,
			want: Compare{Field: "name", Op: OpEq, Value: "O'Brien"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		fragment string
	}{
		{"empty", "   ", "   "},
		{"unknown operator", "amount => 5", "=>"},
		{"single equals", "amount = 5", "="},
		{"word operator", "amount contains 5", "contains"},
		{"bare word literal", "status == Closed", "Closed"},
		{"missing literal", "amount >", "amount >"},
		{"empty path segment", "a..b == 1", "a..b"},
		{"missing field", "== 1", "=="},
		{"unterminated string", "name == 'abc", "'abc"},
		{"malformed number", "amount > 1.2.3", "1.2.3"},
		{"empty set", "status in []", "[]"},
		{"unclosed set", "status in ['a' 'b']", "b"},
		{"dangling and", "amount > 1 and", "and"},
		{"missing operator", "amount", "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.expr)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDSL))
			pe, ok := AsParseError(err)
			require.True(t, ok)
			assert.Equal(t, tt.fragment, pe.Fragment)
		})
	}
}

func TestEvaluate(t *testing.T) {
	snap := Flatten(map[string]any{
		"amount":   75000,
		"score":    "42",
		"status":   "Closed",
		"tags":     []string{"vip", "inbound"},
		"verified": true,
		"owner":    map[string]any{"region": "EMEA"},
		"nothing":  nil,
	})

	tests := []struct {
		expr string
		want bool
	}{
		{"amount >= 50000", true},
		{"amount < 50000", false},
		{"score > 40", true},
		{"score == 42", true},
		{"score == '42'", true},
		{"status == 'Closed'", true},
		{"status != 'Closed'", false},
		{"status > 'Aardvark'", true},
		{"owner.region == 'EMEA'", true},
		{"missing == null", true},
		{"missing != null", false},
		{"missing != 'x'", true},
		{"missing > 1", false},
		{"missing < 1", false},
		{"nothing == null", true},
		{"nothing >= 0", false},
		{"verified == true", true},
		{"verified == 'true'", true},
		{"tags == 'vip'", true},
		{"tags != 'vip'", false},
		{"tags != 'cold'", true},
		{"tags in ['cold', 'inbound']", true},
		{"tags in ['cold']", false},
		{"status in ['Resolved', 'Closed']", true},
		{"amount in [75000, 1]", true},
		{"missing in [null]", true},
		{"amount >= 50000 status == 'Closed'", true},
		{"amount >= 50000 status == 'Open'", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(MustParse(tt.expr), snap)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_NumericKinds(t *testing.T) {
	snap := Flatten(map[string]any{
		"i8":   int8(9),
		"i16":  int16(9),
		"u8":   uint8(9),
		"u16":  uint16(9),
		"u32":  uint32(9),
		"json": json.Number("9"),
		"bad":  json.Number("nine"),
	})

	for _, field := range []string{"i8", "i16", "u8", "u16", "u32", "json"} {
		t.Run(field, func(t *testing.T) {
			for expr, want := range map[string]bool{
				field + " > 10":      false,
				field + " < 10":      true,
				field + " == 9":      true,
				field + " in [1, 9]": true,
			} {
				got, err := Evaluate(MustParse(expr), snap)
				require.NoError(t, err)
				assert.Equal(t, want, got, expr)
			}
		})
	}

	got, err := Evaluate(MustParse("bad > 10"), snap)
	require.NoError(t, err)
	assert.True(t, got, "unparseable numbers compare as text")
}

func TestSnapshot_IsBlank(t *testing.T) {
	snap := Flatten(map[string]any{"a": "", "b": "  ", "c": "x", "d": nil, "e": 0})
	assert.True(t, snap.IsBlank("a"))
	assert.True(t, snap.IsBlank("b"))
	assert.False(t, snap.IsBlank("c"))
	assert.True(t, snap.IsBlank("d"))
	assert.False(t, snap.IsBlank("e"))
	assert.True(t, snap.IsBlank("zzz"))
}

func TestNodeString_ReparsesToSameAST(t *testing.T) {
	n := MustParse("a == 'x' b in [1, true, null] c >= 2.5")
	again, err := Parse(n.String())
	require.NoError(t, err)
	assert.Equal(t, n, again)
	assert.Equal(t, []string{"a", "b", "c"}, Fields(n))
}
