// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

// membershipContains tests scalar membership in a sorted list literal or
// event value, using binary search (§4.4: "Membership tests require
// ascending-sorted literals and use binary search"). One argument is the
// list-shaped Value, the other the scalar-shaped Value; which is which
// does not matter since both directions reduce to the same lookup.
func membershipContains(list, scalar Value) bool {
	switch list.Type {
	case ValueIntegerList:
		return sortedIntegersContain(list.IntegerList, scalarInt(scalar))
	case ValueStringList:
		return sortedStringsContain(list.StringIDs, scalarInt(scalar))
	}
	// the scalar argument was actually the list (Side == SetSideRightVar
	// called with arguments swapped by the caller is never valid; this
	// branch only fires if list.Type wasn't list-shaped, meaning the
	// roles were reversed).
	switch scalar.Type {
	case ValueIntegerList:
		return sortedIntegersContain(scalar.IntegerList, scalarInt(list))
	case ValueStringList:
		return sortedStringsContain(scalar.StringIDs, scalarInt(list))
	}
	return false
}

func scalarInt(v Value) int64 {
	switch v.Type {
	case ValueInteger:
		return v.Integer
	case ValueString, ValueIntegerEnum:
		return v.StringID
	default:
		return 0
	}
}

// evalListOp evaluates one-of/none-of/all-of between a literal list and
// the event's list-valued attribute (§4.4, §8 P6).
func evalListOp(op ListOp, literal, eventValue Value) bool {
	lit := listAsInts(literal)
	ev := listAsInts(eventValue)
	switch op {
	case OpOneOf:
		return intersects(lit, ev)
	case OpNoneOf:
		return !intersects(lit, ev)
	default: // OpAllOf: every element of lit must be present in ev
		return gallopAllPresent(lit, ev)
	}
}

func listAsInts(v Value) []int64 {
	switch v.Type {
	case ValueIntegerList:
		return v.IntegerList
	case ValueStringList:
		return v.StringIDs
	default:
		return nil
	}
}

// intersects reports whether two ascending, duplicate-free sequences
// share any element, walking both in lockstep (O(n+m)).
func intersects(a, b []int64) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			return true
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return false
}

// gallopAllPresent advances the inner cursor to the next value >= the
// current outer value and succeeds iff every outer element is present in
// inner (§4.4: the "gallop" merge for all-of).
func gallopAllPresent(outer, inner []int64) bool {
	j := 0
	for _, v := range outer {
		for j < len(inner) && inner[j] < v {
			j++
		}
		if j >= len(inner) || inner[j] != v {
			return false
		}
	}
	return true
}
