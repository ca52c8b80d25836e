// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

// Tree is the BE-Tree index: attribute domains, the interner, and the
// recursive P-dir/C-dir/L-node structure rooted at a single C-node
// (§4.5). Build (RegisterX + Insert) and serve (Search) are two
// disjoint phases (§5); Insert is not safe for concurrent use, Search is.
type Tree struct {
	domains    *Domains
	interner   *Interner
	boundCache *boundCache
	root       *cnode
	params     Params
	subs       map[uint64]*Subscription
	size       int
}

// New constructs an empty tree. Attribute domains must be registered,
// and subscriptions inserted, before the tree is opened for Search.
func New(params Params) *Tree {
	params = params.withDefaults()
	t := &Tree{
		domains:    newDomains(),
		interner:   newInterner(),
		boundCache: newBoundCache(),
		params:     params,
		subs:       make(map[uint64]*Subscription),
	}
	t.root = newCNode(params.LNodeMaxCap)
	return t
}

// Len returns the number of inserted subscriptions.
func (t *Tree) Len() int { return t.size }

// MemoizeCount returns the number of distinct memoize ids assigned so
// far; callers size a Memo with it.
func (t *Tree) MemoizeCount() int { return t.interner.next }

// AttributeCount returns attr_domain_count, the frozen schema size.
func (t *Tree) AttributeCount() int { return t.domains.count() }

// NewMemo allocates a per-match Memo sized for this tree (§5).
func (t *Tree) NewMemo() *Memo { return NewMemo(t.MemoizeCount()) }

// --- attribute registration (§6) ---

func (t *Tree) RegisterBoolean(name string, allowUndefined bool) (*AttributeDomain, error) {
	return t.domains.register(name, ValueBoolean, allowUndefined, 0, 1)
}

func (t *Tree) RegisterInteger(name string, allowUndefined bool, min, max int64) (*AttributeDomain, error) {
	return t.domains.register(name, ValueInteger, allowUndefined, float64(min), float64(max))
}

func (t *Tree) RegisterFloat(name string, allowUndefined bool, min, max float64) (*AttributeDomain, error) {
	return t.domains.register(name, ValueFloat, allowUndefined, min, max)
}

func (t *Tree) RegisterBoundedString(name string, allowUndefined bool, maxCount int64) (*AttributeDomain, error) {
	return t.domains.register(name, ValueString, allowUndefined, 0, float64(maxCount))
}

func (t *Tree) RegisterBoundedEnum(name string, allowUndefined bool, maxCount int64) (*AttributeDomain, error) {
	return t.domains.register(name, ValueIntegerEnum, allowUndefined, 0, float64(maxCount))
}

func (t *Tree) RegisterIntegerList(name string, allowUndefined bool) (*AttributeDomain, error) {
	return t.domains.register(name, ValueIntegerList, allowUndefined, negInf, posInf)
}

func (t *Tree) RegisterStringList(name string, allowUndefined bool) (*AttributeDomain, error) {
	return t.domains.register(name, ValueStringList, allowUndefined, negInf, posInf)
}

func (t *Tree) RegisterSegments(name string, allowUndefined bool) (*AttributeDomain, error) {
	return t.domains.register(name, ValueSegments, allowUndefined, 0, 0)
}

func (t *Tree) RegisterFrequencyCaps(name string, allowUndefined bool) (*AttributeDomain, error) {
	return t.domains.register(name, ValueFrequencyCaps, allowUndefined, 0, 0)
}

func (t *Tree) AttributeByName(name string) (*AttributeDomain, bool) {
	return t.domains.byNameLookup(name)
}

// Walk enumerates every inserted subscription, stopping as soon as fn
// returns false; it is meant for tests and diagnostics, not the match path.
func (t *Tree) Walk(fn func(*Subscription) bool) {
	for _, s := range t.root.allSubscriptions(nil) {
		if !fn(s) {
			return
		}
	}
}
