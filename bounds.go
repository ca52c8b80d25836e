// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultBoundCacheSize bounds the memory a pathological single insert can
// pin while space partitioning repeatedly re-infers bounds for the same
// (node, variable) pair across many rebalancing passes.
const defaultBoundCacheSize = 4096

type boundCacheKey struct {
	e Expr // pointer identity of the subtree
	v int  // variable id
}

// boundCache fronts inferBound with an LRU, keyed by subtree pointer
// identity (stable for the lifetime of one subscription) and variable id.
// A cache miss just recomputes — correctness never depends on a hit.
type boundCache struct {
	c *lru.Cache[boundCacheKey, ValueBound]
}

func newBoundCache() *boundCache {
	c, _ := lru.New[boundCacheKey, ValueBound](defaultBoundCacheSize)
	return &boundCache{c: c}
}

func (bc *boundCache) get(e Expr, variableID int, d *Domains) ValueBound {
	key := boundCacheKey{e: e, v: variableID}
	if v, ok := bc.c.Get(key); ok {
		return v
	}
	v := inferBound(e, variableID, d)
	bc.c.Add(key, v)
	return v
}

// inferBound derives the tightest range of variableID's value that could
// still make e evaluate true (§4.2). It must never tighten beyond what
// soundness allows: "could this expression still be true for some event
// in the bound?"
func inferBound(e Expr, variableID int, d *Domains) ValueBound {
	used := false
	e.usesVariable(func(id int) {
		if id == variableID {
			used = true
		}
	})
	if !used {
		return unboundedBound()
	}
	return inferBoundInverted(e, variableID, d, false)
}

func inferBoundInverted(e Expr, variableID int, d *Domains, invert bool) ValueBound {
	switch n := e.(type) {
	case *CompareExpr:
		if n.Variable != variableID {
			return unboundedBound()
		}
		c := n.Float
		if !n.IsFloat {
			c = float64(n.Int)
		}
		op := n.Op
		if invert {
			op = invertCompareOp(op)
		}
		switch op {
		case OpLT, OpLE:
			return ValueBound{Min: negInf, Max: c}
		default: // OpGT, OpGE
			return ValueBound{Min: c, Max: posInf}
		}
	case *EqualityExpr:
		if n.Variable != variableID {
			return unboundedBound()
		}
		eq := n.Op == OpEQ
		if invert {
			eq = !eq
		}
		if !eq {
			return unboundedBound()
		}
		switch n.Const.Type {
		case ValueInteger:
			return ValueBound{Min: float64(n.Const.Integer), Max: float64(n.Const.Integer)}
		case ValueFloat:
			return ValueBound{Min: n.Const.Float, Max: n.Const.Float}
		case ValueString, ValueIntegerEnum:
			return ValueBound{Min: float64(n.Const.StringID), Max: float64(n.Const.StringID)}
		default:
			return unboundedBound()
		}
	case *SetExpr:
		if n.Variable != variableID {
			return unboundedBound()
		}
		return listLiteralBound(n.List)
	case *ListExpr:
		if n.Variable != variableID {
			return unboundedBound()
		}
		return listLiteralBound(n.List)
	case *IsNullExpr:
		if n.Variable != variableID {
			return unboundedBound()
		}
		return fullBound(d.byID(variableID))
	case *SpecialExpr:
		used := false
		n.usesVariable(func(id int) {
			if id == variableID {
				used = true
			}
		})
		if !used {
			return unboundedBound()
		}
		return fullBound(d.byID(variableID))
	case *BoolExpr:
		switch n.Op {
		case OpLiteral:
			return unboundedBound()
		case OpVariable:
			if n.Variable != variableID {
				return unboundedBound()
			}
			b := true
			if invert {
				b = false
			}
			return ValueBound{IsBoolBound: true, BoolMin: b, BoolMax: b}
		case OpNot:
			return inferBoundInverted(n.Left, variableID, d, !invert)
		default: // OpAnd, OpOr: union per §4.2, regardless of and/or
			l := inferBoundInverted(n.Left, variableID, d, invert)
			r := inferBoundInverted(n.Right, variableID, d, invert)
			return l.union(r)
		}
	default:
		return unboundedBound()
	}
}

func invertCompareOp(op CompareOp) CompareOp {
	switch op {
	case OpLT:
		return OpGE
	case OpLE:
		return OpGT
	case OpGT:
		return OpLE
	default: // OpGE
		return OpLT
	}
}

func listLiteralBound(v Value) ValueBound {
	switch v.Type {
	case ValueIntegerList:
		if len(v.IntegerList) == 0 {
			return emptyBound()
		}
		lo, hi := v.IntegerList[0], v.IntegerList[0]
		for _, x := range v.IntegerList {
			lo, hi = min(lo, x), max(hi, x)
		}
		return ValueBound{Min: float64(lo), Max: float64(hi)}
	case ValueStringList:
		if len(v.StringIDs) == 0 {
			return emptyBound()
		}
		lo, hi := v.StringIDs[0], v.StringIDs[0]
		for _, x := range v.StringIDs {
			lo, hi = min(lo, x), max(hi, x)
		}
		return ValueBound{Min: float64(lo), Max: float64(hi)}
	case ValueInteger:
		return ValueBound{Min: float64(v.Integer), Max: float64(v.Integer)}
	case ValueString, ValueIntegerEnum:
		return ValueBound{Min: float64(v.StringID), Max: float64(v.StringID)}
	default:
		return unboundedBound()
	}
}
