// Copyright 2021 Converter Systems LLC. All rights reserved.

package tree_test

import (
	"testing"

	"github.com/awcullen/uatree/tree"
	"gotest.tools/assert"
)

func TestParsePath(t *testing.T) {
	cases := []struct {
		in  string
		sep string
		out tree.NodePath
	}{
		{"a.b.c", ".", tree.NodePath{"a", "b", "c"}},
		{"a", ".", tree.NodePath{"a"}},
		{"", ".", tree.NodePath{}},
		{"a..b.", ".", tree.NodePath{"a", "b"}},
		{".a", ".", tree.NodePath{"a"}},
		{"a/b", "/", tree.NodePath{"a", "b"}},
		{"a.b", "", tree.NodePath{"a", "b"}},
	}
	for _, c := range cases {
		assert.DeepEqual(t, tree.ParsePath(c.in, c.sep), c.out)
	}
}

func TestPathRoundTrip(t *testing.T) {
	for _, s := range []string{"a", "a.b", "Objects.Folder.Leaf", "x.y.z.w"} {
		assert.Equal(t, tree.ToList(s).Join("."), s)
		assert.Equal(t, tree.ToList(s).String(), s)
	}
}

func TestPathAppend(t *testing.T) {
	p := tree.NodePath{"a"}
	p = p.Append(tree.NodePath{"b", "c"}...).Append("d")
	assert.DeepEqual(t, p, tree.NodePath{"a", "b", "c", "d"})
	assert.Equal(t, p.Last(), "d")
	assert.DeepEqual(t, p.Parent(), tree.NodePath{"a", "b", "c"})

	q := tree.NodePath{"a", "b"}
	r := q.Child("c")
	assert.DeepEqual(t, q, tree.NodePath{"a", "b"})
	assert.DeepEqual(t, r, tree.NodePath{"a", "b", "c"})
}

func TestPathAppendTo(t *testing.T) {
	out := "prefix:"
	tree.NodePath{}.AppendTo(&out, ".")
	assert.Equal(t, out, "prefix:")
	tree.NodePath{"a", "b"}.AppendTo(&out, "/")
	assert.Equal(t, out, "prefix:a/b")
}
