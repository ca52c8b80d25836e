// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

// Subscription is one inserted predicate: an id, its owned expression,
// the set of attributes it reads, and its precomputed short-circuit
// masks (§4.3). Once inserted a Subscription is never mutated or removed
// (deletion is out of scope, §1).
type Subscription struct {
	ID         uint64
	Expr       Expr
	Attributes bitmap // variable ids the expression reads

	// ShortCircuit pass/fail masks, one bit per allow_undefined
	// attribute: pass[a] set means the expression is forced-true when a
	// is undefined, fail[a] set means forced-false.
	ShortCircuitPass bitmap
	ShortCircuitFail bitmap
}

func (s *Subscription) readsVariable(id int) bool {
	return s.Attributes.test(id)
}
