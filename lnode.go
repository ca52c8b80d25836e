// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

// lnode is a leaf node: a flat list of subscriptions plus the capacity it
// may hold before it overflows and triggers rebalancing (§4.5).
type lnode struct {
	subs []*Subscription
	max  int
}

func newLNode(initialMax int) *lnode {
	return &lnode{max: initialMax}
}

func (l *lnode) overflowed() bool {
	return len(l.subs) > l.max
}

func (l *lnode) add(s *Subscription) {
	l.subs = append(l.subs, s)
}
