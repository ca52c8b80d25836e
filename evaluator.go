// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

import "strings"

// BlameKind tags the closed set of blame buckets: an attribute, or one of
// the three sentinels (§4.7).
type BlameKind uint8

const (
	BlameAttribute BlameKind = iota
	BlameGeo
	BlameInvalidEvent
	BlameUnknown
)

// Blame identifies the single reason a subscription did not match (§4.8).
type Blame struct {
	Kind       BlameKind
	VariableID int // meaningful only when Kind == BlameAttribute
}

func attrBlame(variableID int) Blame { return Blame{Kind: BlameAttribute, VariableID: variableID} }

// bucketIndex maps a Blame to its slot in the report's dense reason map
// (§4.7: attr_domain_count + 3 buckets, sentinels trailing in the order
// GEO, INVALID_EVENT, UNKNOWN).
func (b Blame) bucketIndex(domainCount int) int {
	switch b.Kind {
	case BlameAttribute:
		return b.VariableID
	case BlameGeo:
		return domainCount
	case BlameInvalidEvent:
		return domainCount + 1
	default:
		return domainCount + 2
	}
}

// Memo is a private per-match memoization scratchpad: two bitmaps sized
// to the tree's global memoize-id count, plus the blame recorded for
// each memoized failure (§4.4, §5: "each match owns a private memoize
// structure").
type Memo struct {
	pass  bitmap
	fail  bitmap
	blame []Blame
}

// NewMemo allocates a Memo sized for a tree with memoCount distinct
// memoize ids.
func NewMemo(memoCount int) *Memo {
	return &Memo{
		pass:  newBitmap(memoCount),
		fail:  newBitmap(memoCount),
		blame: make([]Blame, memoCount),
	}
}

// evalStats accumulates the evaluated/memoized counters a Report exposes;
// it is threaded through the recursive evaluator rather than living on
// Report directly so matchSubscription can be called before a Report
// exists (e.g. from property tests that only want a verdict).
type evalStats struct {
	Evaluated int
	Memoized  int
	Shorted   int
}

// matchSubscription runs the short-circuit check, then the full
// evaluator, against one subscription (§4.4). It returns whether the
// subscription matched and, if not, the single blamed reason.
func matchSubscription(sub *Subscription, env *Env, memo *Memo, stats *evalStats) (bool, Blame) {
	if sub.ShortCircuitPass.intersects(env.Undefined) {
		stats.Shorted++
		return true, Blame{}
	}
	if sub.ShortCircuitFail.intersects(env.Undefined) {
		stats.Shorted++
		vid := sub.ShortCircuitFail.firstIntersecting(env.Undefined)
		if vid < 0 {
			return false, Blame{Kind: BlameUnknown}
		}
		return false, attrBlame(vid)
	}
	return evalExpr(sub.Expr, env, memo, stats)
}

func evalExpr(e Expr, env *Env, memo *Memo, stats *evalStats) (bool, Blame) {
	id := e.memoID()
	if id >= 0 {
		if memo.pass.test(id) {
			stats.Memoized++
			return true, Blame{}
		}
		if memo.fail.test(id) {
			stats.Memoized++
			return false, memo.blame[id]
		}
	}
	stats.Evaluated++
	ok, blame := evalNode(e, env, memo, stats)
	if id >= 0 {
		if ok {
			memo.pass.set(id)
		} else {
			memo.fail.set(id)
			memo.blame[id] = blame
		}
	}
	return ok, blame
}

func evalNode(e Expr, env *Env, memo *Memo, stats *evalStats) (bool, Blame) {
	switch n := e.(type) {
	case *CompareExpr:
		if env.isUndefined(n.Variable) {
			return false, attrBlame(n.Variable)
		}
		v := numericValue(env.value(n.Variable))
		c := n.Float
		if !n.IsFloat {
			c = float64(n.Int)
		}
		if compareNumeric(n.Op, v, c) {
			return true, Blame{}
		}
		return false, attrBlame(n.Variable)

	case *EqualityExpr:
		if env.isUndefined(n.Variable) {
			return false, attrBlame(n.Variable)
		}
		eq := valuesEqual(env.value(n.Variable), n.Const)
		if n.Op == OpNE {
			eq = !eq
		}
		if eq {
			return true, Blame{}
		}
		return false, attrBlame(n.Variable)

	case *SetExpr:
		if env.isUndefined(n.Variable) {
			return false, attrBlame(n.Variable)
		}
		var in bool
		if n.Side == SetSideLeftVar {
			in = membershipContains(n.List, env.value(n.Variable))
		} else {
			in = membershipContains(env.value(n.Variable), n.Scalar)
		}
		if n.Op == OpNotIn {
			in = !in
		}
		if in {
			return true, Blame{}
		}
		return false, attrBlame(n.Variable)

	case *ListExpr:
		if env.isUndefined(n.Variable) {
			return false, attrBlame(n.Variable)
		}
		ok := evalListOp(n.Op, n.List, env.value(n.Variable))
		if ok {
			return true, Blame{}
		}
		return false, attrBlame(n.Variable)

	case *IsNullExpr:
		undefined := env.isUndefined(n.Variable)
		switch n.Op {
		case OpIsNull:
			if undefined {
				return true, Blame{}
			}
			return false, attrBlame(n.Variable)
		case OpIsNotNull:
			if !undefined {
				return true, Blame{}
			}
			return false, attrBlame(n.Variable)
		default: // OpIsEmpty
			if undefined || valueIsEmpty(env.value(n.Variable)) {
				return true, Blame{}
			}
			return false, attrBlame(n.Variable)
		}

	case *BoolExpr:
		switch n.Op {
		case OpLiteral:
			if n.Literal {
				return true, Blame{}
			}
			return false, Blame{Kind: BlameUnknown}
		case OpVariable:
			if env.isUndefined(n.Variable) {
				return false, attrBlame(n.Variable)
			}
			if env.value(n.Variable).Bool {
				return true, Blame{}
			}
			return false, attrBlame(n.Variable)
		case OpNot:
			ok, blame := evalExpr(n.Left, env, memo, stats)
			return !ok, blame
		case OpAnd:
			l, lb := evalExpr(n.Left, env, memo, stats)
			if !l {
				return false, lb
			}
			return evalExpr(n.Right, env, memo, stats)
		default: // OpOr
			l, _ := evalExpr(n.Left, env, memo, stats)
			if l {
				return true, Blame{}
			}
			r, rb := evalExpr(n.Right, env, memo, stats)
			if r {
				return true, Blame{}
			}
			return false, rb
		}

	case *SpecialExpr:
		return evalSpecial(n, env)
	}
	panic("betree: unknown expression node")
}

func evalSpecial(n *SpecialExpr, env *Env) (bool, Blame) {
	switch n.Kind {
	case SpecialFrequencyCap:
		if env.isUndefined(n.Variable) {
			return false, attrBlame(n.Variable)
		}
		for _, rec := range env.value(n.Variable).FrequencyCaps {
			if rec.Type == n.FreqCapType && rec.ID == n.FreqCapID && rec.Namespace == n.FreqCapNamespace {
				if rec.Value < n.FreqCapMaxValue {
					return true, Blame{}
				}
				if env.Now-rec.Timestamp > n.FreqCapLength {
					return true, Blame{}
				}
				return false, attrBlame(n.Variable)
			}
		}
		return true, Blame{}

	case SpecialSegmentWithin:
		if env.isUndefined(n.Variable) {
			return false, attrBlame(n.Variable)
		}
		for _, seg := range env.value(n.Variable).Segments {
			if seg.ID == n.SegmentID && env.Now-seg.Timestamp <= n.SegmentSeconds {
				return true, Blame{}
			}
		}
		return false, attrBlame(n.Variable)

	case SpecialSegmentBefore:
		if env.isUndefined(n.Variable) {
			return false, attrBlame(n.Variable)
		}
		for _, seg := range env.value(n.Variable).Segments {
			if seg.ID == n.SegmentID && env.Now-seg.Timestamp > n.SegmentSeconds {
				return true, Blame{}
			}
		}
		return false, attrBlame(n.Variable)

	case SpecialGeoWithinRadius:
		if env.isUndefined(n.LatVariable) || env.isUndefined(n.LonVariable) {
			return false, Blame{Kind: BlameGeo}
		}
		lat := env.value(n.LatVariable).Float
		lon := env.value(n.LonVariable).Float
		if greatCircleDistanceKM(n.CenterLat, n.CenterLon, lat, lon) <= n.RadiusKM {
			return true, Blame{}
		}
		return false, Blame{Kind: BlameGeo}

	default: // SpecialContains, SpecialStartsWith, SpecialEndsWith
		if env.isUndefined(n.Variable) {
			return false, attrBlame(n.Variable)
		}
		s := env.value(n.Variable).StringText
		var ok bool
		switch n.Kind {
		case SpecialContains:
			ok = strings.Contains(s, n.Needle)
		case SpecialStartsWith:
			ok = strings.HasPrefix(s, n.Needle)
		default:
			ok = strings.HasSuffix(s, n.Needle)
		}
		if ok {
			return true, Blame{}
		}
		return false, attrBlame(n.Variable)
	}
}

func numericValue(v Value) float64 {
	if v.Type == ValueFloat {
		return v.Float
	}
	return float64(v.Integer)
}

func compareNumeric(op CompareOp, v, c float64) bool {
	switch op {
	case OpLT:
		return v < c
	case OpLE:
		return v <= c
	case OpGT:
		return v > c
	default: // OpGE
		return v >= c
	}
}

func valuesEqual(a, b Value) bool {
	switch {
	case a.Type == ValueFloat || b.Type == ValueFloat:
		return floatEquals(numericValue(a), numericValue(b))
	case a.Type == ValueInteger && b.Type == ValueInteger:
		return a.Integer == b.Integer
	case a.Type == ValueBoolean && b.Type == ValueBoolean:
		return a.Bool == b.Bool
	default:
		return a.StringID == b.StringID
	}
}

func valueIsEmpty(v Value) bool {
	switch v.Type {
	case ValueIntegerList:
		return len(v.IntegerList) == 0
	case ValueStringList:
		return len(v.StringIDs) == 0
	case ValueSegments:
		return len(v.Segments) == 0
	case ValueFrequencyCaps:
		return len(v.FrequencyCaps) == 0
	default:
		return false
	}
}
