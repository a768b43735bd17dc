package docpath

import (
	"errors"
	"testing"

	"github.com/ctschema/ctschema/schemaerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Path
		wantErr bool
	}{
		{name: "root only", input: "root", want: Path{}},
		{name: "empty", input: "", want: Path{}},
		{name: "single key", input: "root['a']", want: Path{Key("a")}},
		{name: "key and index", input: "root['a'][0]['b']", want: Path{Key("a"), Index(0), Key("b")}},
		{name: "double quotes", input: `root["a"]`, want: Path{Key("a")}},
		{name: "root omitted", input: "['a'][12]", want: Path{Key("a"), Index(12)}},
		{name: "quoted digits stay keys", input: "root['0']", want: Path{Key("0")}},
		{name: "literal quote kept", input: "root['it's']", want: Path{Key("it's")}},
		{name: "bracket inside key", input: "root['a[0]b']", want: Path{Key("a[0]b")}},
		{name: "unquoted key", input: "root[abc]", want: Path{Key("abc")}},
		{name: "unclosed bracket", input: "root['a'", wantErr: true},
		{name: "unterminated quote", input: "root['a]", wantErr: true},
		{name: "garbage after root", input: "root.a", wantErr: true},
		{name: "empty brackets", input: "root[]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathString_RoundTrip(t *testing.T) {
	paths := []Path{
		{},
		{Key("a")},
		{Key("participants"), Index(3), Key("samples"), Index(0), Key("cimac_id")},
		{Key("it's")},
		{Key("odd']key")},
		{Key(`say "hi"]`)},
	}
	for _, p := range paths {
		t.Run(p.String(), func(t *testing.T) {
			parsed, err := Parse(p.String())
			require.NoError(t, err)
			assert.Equal(t, p, parsed)
		})
	}
}

func TestPathString_KeyWithBothClosers(t *testing.T) {
	p := Path{Key(`a']b"]c`)}
	assert.Equal(t, `root["a']b"]c"]`, p.String())

	// The double-quoted key ends at the first `"]`, so the text reads back differently.
	parsed, err := Parse(p.String())
	if err == nil {
		assert.NotEqual(t, p, parsed)
	}
}

func TestPath_Helpers(t *testing.T) {
	p := Path{Key("a"), Index(0), Key("b")}
	assert.Equal(t, Path{Key("a")}, p.Truncate(2))
	assert.Equal(t, Path{}, p.Truncate(10))
	assert.Equal(t, p, p.Truncate(0))
	assert.Equal(t, []string{"a", "b"}, p.Keys())

	child := p.Truncate(1).Child(Key("c"))
	assert.Equal(t, "root['a'][0]['c']", child.String())
	assert.Equal(t, "root['a'][0]['b']", p.String(), "Child must not modify the receiver")
}

func TestResolve(t *testing.T) {
	doc := map[string]any{
		"a": []any{
			map[string]any{"b": "x"},
			map[string]any{"b": "y"},
		},
		"s": "scalar",
	}

	t.Run("full path", func(t *testing.T) {
		v, err := ResolveString(doc, "root['a'][1]['b']", 0)
		require.NoError(t, err)
		assert.Equal(t, "y", v)
	})

	t.Run("skip last", func(t *testing.T) {
		v, err := ResolveString(doc, "root['a'][1]['b']", 1)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"b": "y"}, v)
	})

	t.Run("skip everything yields root", func(t *testing.T) {
		v, err := ResolveString(doc, "root['a'][1]['b']", 5)
		require.NoError(t, err)
		assert.Equal(t, doc, v)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := ResolveString(doc, "root['a'][0]['c']", 0)
		var pnf *schemaerrors.PathNotFoundError
		require.True(t, errors.As(err, &pnf))
		assert.Equal(t, "c", pnf.Token)
		assert.Equal(t, "root['a'][0]", pnf.Walked)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := ResolveString(doc, "root['a'][2]", 0)
		require.ErrorIs(t, err, schemaerrors.ErrPathNotFound)
		assert.Contains(t, err.Error(), "out of range")
	})

	t.Run("step into scalar", func(t *testing.T) {
		_, err := ResolveString(doc, "root['s']['x']", 0)
		require.ErrorIs(t, err, schemaerrors.ErrPathNotFound)
	})

	t.Run("invalid text", func(t *testing.T) {
		_, err := ResolveString(doc, "root['s'", 0)
		require.Error(t, err)
		assert.NotErrorIs(t, err, schemaerrors.ErrPathNotFound)
	})
}

func TestPattern(t *testing.T) {
	doc := map[string]any{
		"objs": []any{
			map[string]any{"id": int64(1)},
			map[string]any{"id": "x"},
			map[string]any{"other": true},
		},
		"byName": map[string]any{
			"b": map[string]any{"id": "B"},
			"a": map[string]any{"id": "A"},
		},
		"empty": []any{},
	}

	tests := []struct {
		pattern string
		want    []any
	}{
		{pattern: "/objs/*/id", want: []any{int64(1), "x"}},
		{pattern: "/objs/0/id", want: []any{int64(1)}},
		{pattern: "/byName/*/id", want: []any{"A", "B"}},
		{pattern: "/empty/*/id", want: nil},
		{pattern: "/missing/*", want: nil},
		{pattern: "/objs/7/id", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := ParsePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.pattern, p.String())
			assert.Equal(t, tt.want, p.Values(doc))
		})
	}
}

func TestParsePattern_Errors(t *testing.T) {
	for _, raw := range []string{"", "objs/*", "/objs/ab*/id", "/*x"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParsePattern(raw)
			require.Error(t, err)
		})
	}
}

func TestPointerHelpers(t *testing.T) {
	doc := map[string]any{
		"arms": []any{
			map[string]any{"arm_code": "A"},
			map[string]any{"arm_code": "B"},
		},
		"0": map[string]any{"a/b": true},
	}

	got, ok := ResolvePointer(doc, "/arms/1/arm_code")
	require.True(t, ok)
	assert.Equal(t, "B", got)

	got, ok = ResolvePointer(doc, "/0/a~1b")
	require.True(t, ok)
	assert.Equal(t, true, got)

	_, ok = ResolvePointer(doc, "/arms/2")
	assert.False(t, ok)

	assert.Equal(t, Path{Key("arms"), Index(1), Key("arm_code")}, FromPointer(doc, "/arms/1/arm_code"))
	assert.Equal(t, Path{Key("0"), Key("a/b")}, FromPointer(doc, "/0/a~1b"))
	assert.Equal(t, Path{}, FromPointer(doc, ""))
}
