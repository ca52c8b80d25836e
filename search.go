// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

// Search validates raw, builds its Env, walks the tree and fills rep with
// every matched subscription and every non-match's blamed reason (§4.6).
// A validation failure charges every subscription with INVALID_EVENT and
// returns the error without walking the tree (step 2).
func (t *Tree) Search(raw *RawEvent, rep *Report) error {
	return t.SearchIds(raw, rep, nil)
}

// SearchWithEvent runs the walk against an already-built Env, skipping
// validation. Useful when a caller reuses one Env across several searches
// (e.g. replaying the same event against disjoint id filters).
func (t *Tree) SearchWithEvent(env *Env, rep *Report) {
	t.searchIds(env, nil, rep)
}

// SearchIds restricts the walk to a caller-supplied, ascending-sorted
// subscription id filter (§4.6 point 6, §6 search_ids).
func (t *Tree) SearchIds(raw *RawEvent, rep *Report, ids []uint64) error {
	env, err := buildEnv(raw, t.domains)
	if err != nil {
		rep.blameAllInvalidEvent(t.idsOrAll(ids))
		return err
	}
	t.searchIds(env, ids, rep)
	return nil
}

func (t *Tree) searchIds(env *Env, ids []uint64, rep *Report) {
	memo := t.NewMemo()
	stats := &evalStats{}
	walkCNode(t, t.root, env, ids, rep, memo, stats)
	rep.Evaluated += stats.Evaluated
	rep.Memoized += stats.Memoized
	rep.Shorted += stats.Shorted
}

func (t *Tree) idsOrAll(ids []uint64) []uint64 {
	if ids != nil {
		return ids
	}
	out := make([]uint64, 0, t.size)
	for id := range t.subs {
		out = append(out, id)
	}
	return out
}

// walkCNode evaluates every subscription in n's own L-node, then descends
// into each of n's P-nodes (§4.6 point 4): an attribute that is undefined
// in the event, or whose value has no single scalar representation (the
// list-valued attribute types), cannot be used to prune, so both branches
// are visited in full; otherwise only the branch whose bound contains the
// event's value is visited, and every subscription in the excluded branch
// is charged with the partition's attribute directly, without evaluation.
func walkCNode(t *Tree, n *cnode, env *Env, ids []uint64, rep *Report, memo *Memo, stats *evalStats) {
	for _, sub := range n.leaf.subs {
		if ids != nil && !idsContain(ids, sub.ID) {
			continue
		}
		evaluateCandidate(sub, env, rep, memo, stats)
	}
	if n.pdir == nil {
		return
	}
	for attr, pn := range n.pdir.nodes {
		dom := t.domains.byID(attr)
		if env.isUndefined(attr) {
			walkCDirAll(t, pn.root, env, ids, rep, memo, stats)
			continue
		}
		v, ok := attributeScalarValue(dom, env.value(attr))
		if !ok {
			walkCDirAll(t, pn.root, env, ids, rep, memo, stats)
			continue
		}
		walkCDirPruned(t, pn.root, v, attr, env, ids, rep, memo, stats)
	}
}

func walkCDirAll(t *Tree, cd *cdir, env *Env, ids []uint64, rep *Report, memo *Memo, stats *evalStats) {
	walkCNode(t, cd.node, env, ids, rep, memo, stats)
	if cd.left != nil {
		walkCDirAll(t, cd.left, env, ids, rep, memo, stats)
	}
	if cd.right != nil {
		walkCDirAll(t, cd.right, env, ids, rep, memo, stats)
	}
}

func walkCDirPruned(t *Tree, cd *cdir, v float64, attr int, env *Env, ids []uint64, rep *Report, memo *Memo, stats *evalStats) {
	walkCNode(t, cd.node, env, ids, rep, memo, stats)
	if cd.left != nil {
		if cd.left.bound.containsScalar(v) {
			walkCDirPruned(t, cd.left, v, attr, env, ids, rep, memo, stats)
		} else {
			blameExcluded(cd.left, attr, ids, rep)
		}
	}
	if cd.right != nil {
		if cd.right.bound.containsScalar(v) {
			walkCDirPruned(t, cd.right, v, attr, env, ids, rep, memo, stats)
		} else {
			blameExcluded(cd.right, attr, ids, rep)
		}
	}
}

// blameExcluded charges every subscription under cd with attr's blame
// directly: the tree invariant guarantees none of them can match this
// event on attr, so running the evaluator on them would be wasted work.
func blameExcluded(cd *cdir, attr int, ids []uint64, rep *Report) {
	blame := attrBlame(attr)
	for _, sub := range cd.allSubscriptions(nil) {
		if ids != nil && !idsContain(ids, sub.ID) {
			continue
		}
		rep.addReason(blame, sub.ID)
	}
}

func evaluateCandidate(sub *Subscription, env *Env, rep *Report, memo *Memo, stats *evalStats) {
	ok, blame := matchSubscription(sub, env, memo, stats)
	if ok {
		rep.addMatch(sub.ID)
		return
	}
	rep.addReason(blame, sub.ID)
}

// attributeScalarValue returns the single-number representation of v used
// to test it against a C-dir bound. The list-valued attribute types have
// no such representation; their P-nodes, if any were ever created, are
// always walked in full.
func attributeScalarValue(dom *AttributeDomain, v Value) (float64, bool) {
	switch dom.Type {
	case ValueBoolean:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case ValueInteger:
		return float64(v.Integer), true
	case ValueFloat:
		return v.Float, true
	case ValueString, ValueIntegerEnum:
		return float64(v.StringID), true
	default:
		return 0, false
	}
}
