// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

import (
	"hash/fnv"
	"sort"

	"golang.org/x/exp/slices"
)

// Interner owns the memoize-id fingerprint table. It spans every
// subscription ever inserted into the owning Tree (§4.1: "The fingerprint
// hash table is owned by the tree and spans every inserted subscription").
type Interner struct {
	fingerprints map[uint64]int
	next         int
}

func newInterner() *Interner {
	return &Interner{fingerprints: make(map[uint64]int)}
}

// canonicalize applies the idempotent rules of §4.1 in order: sort lists,
// coerce integer literals to float where the attribute domain is float,
// then assign memoize ids over the now-canonical shape. It also computes
// and returns the subscription's attribute-set bitmap.
func canonicalize(e Expr, d *Domains, interner *Interner) (bitmap, error) {
	if err := checkValidity(e, d); err != nil {
		return nil, err
	}
	sortLists(e)
	coerceFloats(e, d)
	attrs := newBitmap(d.count())
	e.usesVariable(func(id int) { attrs.set(id) })
	assignMemoizeIDs(e, interner)
	return attrs, nil
}

// sortLists makes every IntegerList/StringList literal ascending and
// duplicate-free, recursively. Idempotent: an already-sorted, already-
// deduplicated list is returned unchanged.
func sortLists(e Expr) {
	switch n := e.(type) {
	case *SetExpr:
		sortValueList(&n.List)
	case *ListExpr:
		sortValueList(&n.List)
	case *BoolExpr:
		if n.Left != nil {
			sortLists(n.Left)
		}
		if n.Right != nil {
			sortLists(n.Right)
		}
	}
}

func sortValueList(v *Value) {
	switch v.Type {
	case ValueIntegerList:
		slices.Sort(v.IntegerList)
		v.IntegerList = slices.Compact(v.IntegerList)
	case ValueStringList:
		slices.Sort(v.StringIDs)
		v.StringIDs = slices.Compact(v.StringIDs)
	}
}

// coerceFloats rewrites numeric comparisons against an integer literal to
// float when the compared attribute's domain is float (§4.1).
func coerceFloats(e Expr, d *Domains) {
	switch n := e.(type) {
	case *CompareExpr:
		if !n.IsFloat && d.byID(n.Variable).Type == ValueFloat {
			n.IsFloat = true
			n.Float = float64(n.Int)
		}
	case *EqualityExpr:
		if n.Const.Type == ValueInteger && d.byID(n.Variable).Type == ValueFloat {
			n.Const = Value{Type: ValueFloat, Float: float64(n.Const.Integer)}
		}
	case *BoolExpr:
		if n.Left != nil {
			coerceFloats(n.Left, d)
		}
		if n.Right != nil {
			coerceFloats(n.Right, d)
		}
	}
}

// checkValidity fails when a variable is unknown, a string literal is
// outside the attribute's bounded enumeration, or a special expression
// references the wrong attribute type (§4.1).
func checkValidity(e Expr, d *Domains) error {
	var err error
	e.usesVariable(func(id int) {
		if err != nil {
			return
		}
		if id < 0 || id >= d.count() {
			err = &ValidationError{Msg: "unknown variable id", Var: ""}
		}
	})
	if err != nil {
		return err
	}
	switch n := e.(type) {
	case *EqualityExpr:
		dom := d.byID(n.Variable)
		if dom.Type == ValueString && n.Const.Type == ValueString && n.Const.StringID >= int64(dom.Max) {
			return &ValidationError{Var: dom.Name, Msg: "string literal outside bounded enumeration"}
		}
	case *SetExpr:
		if n.Side != SetSideLeftVar {
			break
		}
		dom := d.byID(n.Variable)
		if dom.Type != ValueString && dom.Type != ValueIntegerEnum {
			break
		}
		for _, id := range n.List.StringIDs {
			if id < 0 || id >= int64(dom.Max) {
				return &ValidationError{Var: dom.Name, Msg: "string literal outside bounded enumeration"}
			}
		}
	case *SpecialExpr:
		if n.Kind == SpecialGeoWithinRadius {
			if d.byID(n.LatVariable).Type != ValueFloat || d.byID(n.LonVariable).Type != ValueFloat {
				return &ValidationError{Msg: "geo_within_radius requires float lat/lon attributes"}
			}
		} else if n.Kind == SpecialSegmentWithin || n.Kind == SpecialSegmentBefore {
			if d.byID(n.Variable).Type != ValueSegments {
				return &ValidationError{Var: d.byID(n.Variable).Name, Msg: "segment test on non-segments attribute"}
			}
		} else if n.Kind == SpecialFrequencyCap {
			if d.byID(n.Variable).Type != ValueFrequencyCaps {
				return &ValidationError{Var: d.byID(n.Variable).Name, Msg: "frequency cap test on non-frequency-caps attribute"}
			}
		}
	case *BoolExpr:
		if n.Left != nil {
			if err := checkValidity(n.Left, d); err != nil {
				return err
			}
		}
		if n.Right != nil {
			if err := checkValidity(n.Right, d); err != nil {
				return err
			}
		}
	}
	return nil
}

// assignMemoizeIDs fingerprints every subtree (post-order, so children are
// fingerprinted before parents) and assigns a dense id to each distinct
// fingerprint, shared across subscriptions (P5). Literal and bare-variable
// leaves are exempt — their evaluation cost is too low to be worth the
// memoization bookkeeping.
func assignMemoizeIDs(e Expr, interner *Interner) uint64 {
	h := fnv.New64a()
	var childFP []uint64

	switch n := e.(type) {
	case *CompareExpr:
		writeUint64(h, uint64(1))
		writeUint64(h, uint64(n.Op))
		writeUint64(h, uint64(n.Variable))
		if n.IsFloat {
			writeUint64(h, 1)
			writeFloat(h, n.Float)
		} else {
			writeUint64(h, 0)
			writeUint64(h, uint64(n.Int))
		}
	case *EqualityExpr:
		writeUint64(h, uint64(2))
		writeUint64(h, uint64(n.Op))
		writeUint64(h, uint64(n.Variable))
		writeValue(h, n.Const)
	case *SetExpr:
		writeUint64(h, uint64(3))
		writeUint64(h, uint64(n.Op))
		writeUint64(h, uint64(n.Side))
		writeUint64(h, uint64(n.Variable))
		writeValue(h, n.Scalar)
		writeValue(h, n.List)
	case *ListExpr:
		writeUint64(h, uint64(4))
		writeUint64(h, uint64(n.Op))
		writeUint64(h, uint64(n.Variable))
		writeValue(h, n.List)
	case *BoolExpr:
		writeUint64(h, uint64(5))
		writeUint64(h, uint64(n.Op))
		writeUint64(h, uint64(n.Variable))
		if n.Op == OpLiteral {
			if n.Literal {
				writeUint64(h, 1)
			} else {
				writeUint64(h, 0)
			}
		}
		if n.Left != nil {
			childFP = append(childFP, assignMemoizeIDs(n.Left, interner))
		}
		if n.Right != nil {
			childFP = append(childFP, assignMemoizeIDs(n.Right, interner))
		}
	case *IsNullExpr:
		writeUint64(h, uint64(6))
		writeUint64(h, uint64(n.Op))
		writeUint64(h, uint64(n.Variable))
	case *SpecialExpr:
		writeUint64(h, uint64(7))
		writeUint64(h, uint64(n.Kind))
		writeUint64(h, uint64(n.Variable))
		writeFloat(h, n.CenterLat)
		writeFloat(h, n.CenterLon)
		writeFloat(h, n.RadiusKM)
		writeUint64(h, uint64(n.SegmentID))
		writeUint64(h, uint64(n.SegmentSeconds))
		h.Write([]byte(n.FreqCapType + "\x00" + n.FreqCapID + "\x00" + n.FreqCapNamespace + "\x00" + n.Needle))
	}
	for _, fp := range childFP {
		writeUint64(h, fp)
	}
	fp := h.Sum64()

	if isMemoExempt(e) {
		e.setMemoID(-1)
		return fp
	}
	id, ok := interner.fingerprints[fp]
	if !ok {
		id = interner.next
		interner.fingerprints[fp] = id
		interner.next++
	}
	e.setMemoID(id)
	return fp
}

func isMemoExempt(e Expr) bool {
	if b, ok := e.(*BoolExpr); ok {
		return b.Op == OpLiteral || b.Op == OpVariable
	}
	return false
}

func writeUint64(h interface{ Write([]byte) (int, error) }, v uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	h.Write(buf[:])
}

func writeFloat(h interface{ Write([]byte) (int, error) }, f float64) {
	writeUint64(h, floatBits(f))
}

func writeValue(h interface{ Write([]byte) (int, error) }, v Value) {
	writeUint64(h, uint64(v.Type))
	switch v.Type {
	case ValueBoolean:
		if v.Bool {
			writeUint64(h, 1)
		} else {
			writeUint64(h, 0)
		}
	case ValueInteger:
		writeUint64(h, uint64(v.Integer))
	case ValueFloat:
		writeFloat(h, v.Float)
	case ValueString, ValueIntegerEnum:
		writeUint64(h, uint64(v.StringID))
	case ValueIntegerList:
		for _, i := range v.IntegerList {
			writeUint64(h, uint64(i))
		}
	case ValueStringList:
		for _, i := range v.StringIDs {
			writeUint64(h, uint64(i))
		}
	}
}

// sortedIntegersContain binary-searches an ascending, deduplicated slice.
func sortedIntegersContain(xs []int64, v int64) bool {
	i, ok := slices.BinarySearch(xs, v)
	_ = i
	return ok
}

func sortedStringsContain(xs []int64, v int64) bool {
	i, ok := slices.BinarySearch(xs, v)
	_ = i
	return ok
}

// assertSorted exists for property tests (P5/P6); not used on the
// hot path.
func assertSorted(xs []int64) bool {
	return sort.SliceIsSorted(xs, func(i, j int) bool { return xs[i] < xs[j] })
}
