package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointerBuilder_Basic(t *testing.T) {
	p := &PointerBuilder{}
	p.Push("properties")
	p.Push("participants")
	p.PushIndex(0)

	assert.Equal(t, "/properties/participants/0", p.String())
	assert.Equal(t, "#/properties/participants/0", p.Fragment())
	assert.Equal(t, 3, p.Len())
}

func TestPointerBuilder_PushPop(t *testing.T) {
	p := &PointerBuilder{}
	p.Push("a")
	p.Push("b")
	p.Pop()
	p.Push("c")
	assert.Equal(t, "/a/c", p.String())

	p.Pop()
	p.Pop()
	p.Pop() // Should not panic
	assert.Equal(t, "", p.String())
	assert.Equal(t, "#", p.Fragment())
}

func TestPointerBuilder_Escaping(t *testing.T) {
	p := &PointerBuilder{}
	p.Push("a/b")
	p.Push("c~d")
	assert.Equal(t, "/a~1b/c~0d", p.String())
}

func TestPointerBuilder_Pool(t *testing.T) {
	p := Get()
	p.Push("x")
	Put(p)

	q := Get()
	defer Put(q)
	assert.Equal(t, "", q.String(), "pooled builder must be reset")
}

func TestSplitJoinPointer(t *testing.T) {
	tests := []struct {
		ptr  string
		want []string
	}{
		{ptr: "", want: nil},
		{ptr: "#", want: nil},
		{ptr: "#/", want: nil},
		{ptr: "/definitions/node", want: []string{"definitions", "node"}},
		{ptr: "#/properties/a~1b/c~0d", want: []string{"properties", "a/b", "c~d"}},
	}
	for _, tt := range tests {
		t.Run(tt.ptr, func(t *testing.T) {
			got := SplitPointer(tt.ptr)
			assert.Equal(t, tt.want, got)
			if len(tt.want) > 0 {
				assert.Equal(t, tt.want, SplitPointer(JoinPointer(got)))
			}
		})
	}
}
