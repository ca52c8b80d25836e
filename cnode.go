// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

// cnode is a C-node: an L-node plus an optional P-dir. It is the unit
// that appears both as the tree root and inside every C-dir (§4.5).
type cnode struct {
	leaf *lnode
	pdir *pdir // nil until the first P-node is created under it
}

func newCNode(lnodeMaxCap int) *cnode {
	return &cnode{leaf: newLNode(lnodeMaxCap)}
}

// allSubscriptions appends every subscription reachable from n (its own
// leaf plus every P-node's cluster tree) into out. Used by Walk, by tests
// that need a full enumeration, and by search.go's blameExcluded to charge
// every subscription under a pruned C-dir.
func (n *cnode) allSubscriptions(out []*Subscription) []*Subscription {
	out = append(out, n.leaf.subs...)
	if n.pdir != nil {
		for _, pn := range n.pdir.nodes {
			out = pn.root.allSubscriptions(out)
		}
	}
	return out
}

func (cd *cdir) allSubscriptions(out []*Subscription) []*Subscription {
	out = cd.node.allSubscriptions(out)
	if cd.left != nil {
		out = cd.left.allSubscriptions(out)
	}
	if cd.right != nil {
		out = cd.right.allSubscriptions(out)
	}
	return out
}
