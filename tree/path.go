// Copyright 2021 Converter Systems LLC. All rights reserved.

package tree

import "strings"

// DefaultSeparator separates the segments of a browse path, e.g. "Folder.Leaf".
const DefaultSeparator = "."

// NodePath is an ordered sequence of path segments.
type NodePath []string

// ParsePath splits s into segments on sep. Empty segments are dropped, so
// leading, trailing and doubled separators never produce an empty name.
// An empty sep is treated as DefaultSeparator.
func ParsePath(s, sep string) NodePath {
	if sep == "" {
		sep = DefaultSeparator
	}
	p := NodePath{}
	for _, seg := range strings.Split(s, sep) {
		if seg != "" {
			p = append(p, seg)
		}
	}
	return p
}

// ToList splits s on DefaultSeparator.
func ToList(s string) NodePath {
	return ParsePath(s, DefaultSeparator)
}

// Join returns the segments joined by sep. The empty path joins to "".
func (p NodePath) Join(sep string) string {
	return strings.Join(p, sep)
}

// String returns the segments joined by DefaultSeparator.
func (p NodePath) String() string {
	return p.Join(DefaultSeparator)
}

// AppendTo appends the joined path to out. out is unchanged if the path is empty.
func (p NodePath) AppendTo(out *string, sep string) {
	if len(p) == 0 {
		return
	}
	*out += p.Join(sep)
}

// Append adds the segments of other to the end of the path and returns the result.
func (p NodePath) Append(other ...string) NodePath {
	return append(p, other...)
}

// Child returns a new path with name added, leaving p unchanged.
func (p NodePath) Child(name string) NodePath {
	out := make(NodePath, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Last returns the final segment, or "" if the path is empty.
func (p NodePath) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path without its final segment.
func (p NodePath) Parent() NodePath {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}
