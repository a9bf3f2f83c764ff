// Package sets provides the set-once, read-many string sets published by
// AgentRuntime before the drain loop starts: BlockedCmdSet and
// BlockedIpSet. Both are backed by an immutable radix tree so every reader
// after publication sees a stable, lock-free snapshot — there is exactly one
// writer (the loader, at startup) and no in-place mutation afterwards.
package sets

import (
	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/hostwatch/edr-agent/domain"
)

// ImmutableSet is a domain.StringSetIface backed by an immutable radix tree.
type ImmutableSet struct {
	tree *iradix.Tree
}

// New builds an ImmutableSet containing every entry of values. Empty strings
// are dropped, mirroring the original loader's filtering of blank entries.
func New(values []string) *ImmutableSet {
	tree := iradix.New()
	for _, v := range values {
		if v == "" {
			continue
		}
		tree, _, _ = tree.Insert([]byte(v), struct{}{})
	}
	return &ImmutableSet{tree: tree}
}

// Contains reports whether str is a member of the set.
func (s *ImmutableSet) Contains(str string) bool {
	if s == nil || s.tree == nil {
		return false
	}
	_, found := s.tree.Get([]byte(str))
	return found
}

// Len reports the number of entries in the set.
func (s *ImmutableSet) Len() int {
	if s == nil || s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

var _ domain.StringSetIface = (*ImmutableSet)(nil)
