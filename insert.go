// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

// Constant binds an integer value to a name referenced by a
// within_frequency_cap expression (§6: "A constant is a (name,
// integer_value) pair bound for the within_frequency_cap family").
type Constant struct {
	Name  string
	Value int64
}

// Insert canonicalizes expr, computes its short-circuit masks, and
// places the resulting subscription in the tree (§4.5). Ids must be
// distinct; a duplicate is an InsertionError.
func (t *Tree) Insert(id uint64, expr Expr) error {
	if _, exists := t.subs[id]; exists {
		return &InsertionError{ID: id, Msg: "duplicate subscription id"}
	}
	attrs, err := canonicalize(expr, t.domains, t.interner)
	if err != nil {
		return err
	}
	pass, fail := computeShortCircuit(expr, t.domains)
	sub := &Subscription{
		ID:               id,
		Expr:             expr,
		Attributes:       attrs,
		ShortCircuitPass: pass,
		ShortCircuitFail: fail,
	}
	t.insertSubscription(sub)
	return nil
}

// InsertWithConstants resolves named frequency-cap constants against
// every SpecialExpr frequency-cap node in expr before inserting.
func (t *Tree) InsertWithConstants(id uint64, constants []Constant, expr Expr) error {
	byName := make(map[string]int64, len(constants))
	for _, c := range constants {
		byName[c.Name] = c.Value
	}
	if err := bindFrequencyCapConstants(expr, byName, id); err != nil {
		return err
	}
	return t.Insert(id, expr)
}

func bindFrequencyCapConstants(e Expr, byName map[string]int64, id uint64) error {
	switch n := e.(type) {
	case *SpecialExpr:
		if n.Kind != SpecialFrequencyCap {
			return nil
		}
		if n.MaxValueConstName != "" {
			v, ok := byName[n.MaxValueConstName]
			if !ok {
				return &InsertionError{ID: id, Msg: "missing constant " + n.MaxValueConstName}
			}
			n.FreqCapMaxValue = uint32(v)
		}
		if n.LengthConstName != "" {
			v, ok := byName[n.LengthConstName]
			if !ok {
				return &InsertionError{ID: id, Msg: "missing constant " + n.LengthConstName}
			}
			n.FreqCapLength = v
		}
	case *BoolExpr:
		if n.Left != nil {
			if err := bindFrequencyCapConstants(n.Left, byName, id); err != nil {
				return err
			}
		}
		if n.Right != nil {
			if err := bindFrequencyCapConstants(n.Right, byName, id); err != nil {
				return err
			}
		}
	}
	return nil
}

// WidenDomainsForExpression inspects expr purely to grow attribute
// bounds, without inserting a subscription (§6). Bounds only ever grow
// (P3: bound monotonicity).
func (t *Tree) WidenDomainsForExpression(expr Expr) {
	widenDomains(expr, t.domains)
}

func widenDomains(e Expr, d *Domains) {
	switch n := e.(type) {
	case *CompareExpr:
		dom := d.byID(n.Variable)
		if n.IsFloat {
			dom.widen(n.Float)
		} else {
			dom.widen(float64(n.Int))
		}
	case *EqualityExpr:
		dom := d.byID(n.Variable)
		switch n.Const.Type {
		case ValueInteger:
			dom.widen(float64(n.Const.Integer))
		case ValueFloat:
			dom.widen(n.Const.Float)
		}
	case *SetExpr:
		widenFromList(d.byID(n.Variable), n.List)
	case *ListExpr:
		widenFromList(d.byID(n.Variable), n.List)
	case *BoolExpr:
		if n.Left != nil {
			widenDomains(n.Left, d)
		}
		if n.Right != nil {
			widenDomains(n.Right, d)
		}
	}
}

func widenFromList(dom *AttributeDomain, v Value) {
	b := listLiteralBound(v)
	if b.Unbounded {
		return
	}
	dom.widen(b.Min)
	dom.widen(b.Max)
}

func (t *Tree) insertSubscription(sub *Subscription) {
	usedAbove := newBitmap(t.domains.count())
	insertAt(t, t.root, sub, usedAbove)
	t.subs[sub.ID] = sub
	t.size++
}

// insertAt places sub under n, following §4.5's four-step insertion
// algorithm.
func insertAt(t *Tree, n *cnode, sub *Subscription, usedAbove bitmap) {
	if n.pdir != nil {
		var best *pnode
		var bestAttr int
		for attr, pn := range n.pdir.nodes {
			if usedAbove.test(attr) || !sub.readsVariable(attr) {
				continue
			}
			if best == nil || pn.score > best.score {
				best, bestAttr = pn, attr
			}
		}
		if best != nil {
			dom := t.domains.byID(bestAttr)
			b := t.boundCache.get(sub.Expr, bestAttr, t.domains)
			target := best.root.descend(b)
			newUsed := usedAbove.clone()
			newUsed.set(bestAttr)
			insertAt(t, target.node, sub, newUsed)
			best.recordInsert(t.size+1, dom)
			return
		}
	}

	n.leaf.add(sub)
	if n.leaf.overflowed() {
		spacePartition(t, n, usedAbove)
	}
}

// selectPartitionAttribute picks the highest-scored unused attribute
// eligible for a new P-node: enough subscriptions mention it and its
// domain is narrow enough to split (§4.5).
func selectPartitionAttribute(t *Tree, n *cnode, usedAbove bitmap) (int, *AttributeDomain, bool) {
	total := len(n.leaf.subs)
	bestScore := -1.0
	bestAttr := -1
	for i := 0; i < t.domains.count(); i++ {
		if usedAbove.test(i) {
			continue
		}
		if n.pdir != nil {
			if _, exists := n.pdir.nodes[i]; exists {
				continue
			}
		}
		dom := t.domains.byID(i)
		if domainWidth(dom) > t.params.MaxDomainForSplit {
			continue
		}
		count := 0
		for _, s := range n.leaf.subs {
			if s.readsVariable(i) {
				count++
			}
		}
		if count < t.params.PartitionMinSize {
			continue
		}
		score := partitionScore(count, total, dom)
		if score > bestScore {
			bestScore, bestAttr = score, i
		}
	}
	if bestAttr < 0 {
		return 0, nil, false
	}
	return bestAttr, t.domains.byID(bestAttr), true
}

// spacePartition is run on an overflowing L-node inside C-node n (§4.5).
func spacePartition(t *Tree, n *cnode, usedAbove bitmap) {
	for n.leaf.overflowed() {
		attr, dom, ok := selectPartitionAttribute(t, n, usedAbove)
		if !ok {
			break
		}
		if n.pdir == nil {
			n.pdir = newPDir()
		}
		pn := newPNode(attr, dom, t.params.LNodeMaxCap)
		n.pdir.nodes[attr] = pn

		newUsed := usedAbove.clone()
		newUsed.set(attr)

		remaining := n.leaf.subs[:0:0]
		moved := 0
		for _, s := range n.leaf.subs {
			if s.readsVariable(attr) {
				b := t.boundCache.get(s.Expr, attr, t.domains)
				target := pn.root.descend(b)
				target.node.leaf.add(s)
				moved++
			} else {
				remaining = append(remaining, s)
			}
		}
		n.leaf.subs = remaining
		pn.subCount = moved
		pn.score = partitionScore(moved, moved, dom)
		t.params.Logger.Trace("betree: space partitioning", "attribute", dom.Name, "moved", moved)

		spaceCluster(t, pn.root, newUsed)
		n.leaf.max = roundUpCap(t.params.LNodeMaxCap, len(n.leaf.subs))
	}
}

// spaceCluster is run on a C-dir whose L-node overflows (§4.5).
func spaceCluster(t *Tree, cd *cdir, usedAbove bitmap) {
	if !cd.node.leaf.overflowed() {
		return
	}
	if cd.bound.isAtomic() || cd.left != nil || cd.right != nil {
		spacePartition(t, cd.node, usedAbove)
		return
	}

	lo, hi := splitBound(cd.bound)
	cd.left = newCDir(lo, cd, cd.variableID, t.params.LNodeMaxCap)
	cd.right = newCDir(hi, cd, cd.variableID, t.params.LNodeMaxCap)

	residue := cd.node.leaf.subs[:0:0]
	for _, s := range cd.node.leaf.subs {
		b := t.boundCache.get(s.Expr, cd.variableID, t.domains)
		switch {
		case lo.encloses(b):
			cd.left.node.leaf.add(s)
		case hi.encloses(b):
			cd.right.node.leaf.add(s)
		default:
			residue = append(residue, s)
		}
	}
	cd.node.leaf.subs = residue
	t.params.Logger.Trace("betree: space clustering split", "variable", cd.variableID)

	spaceCluster(t, cd.left, usedAbove)
	spaceCluster(t, cd.right, usedAbove)

	cd.node.leaf.max = roundUpCap(t.params.LNodeMaxCap, len(cd.node.leaf.subs))
	if cd.node.leaf.overflowed() {
		spacePartition(t, cd.node, usedAbove)
	}
}
