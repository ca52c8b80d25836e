// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

import "golang.org/x/exp/slices"

// RawEvent is the already-parsed, not-yet-validated form of an event: a
// map from attribute name to value (§6, "event serialised form"), plus
// the timestamp used by segment/frequency-cap specials. Producing this
// from event text is the external parser's job (collaborators.go); the
// core only ever sees RawEvent and Env.
type RawEvent struct {
	Values map[string]Value
	Now    int64
}

// Env is the per-match, private event environment (§5): a dense array
// indexed by variable_id plus a bitmap marking undefined attributes. Each
// concurrent Search call owns its own Env.
type Env struct {
	Values    []Value
	Undefined bitmap
	Now       int64
}

// buildEnv validates a RawEvent against the registered domains, fills in
// domain defaults for unspecified attributes that have one (a missing
// attribute with no default is left undefined if allow_undefined, and is
// a validation failure otherwise), and sorts list-valued fields ascending
// (§4.6 steps 2–3). On a validation failure
// it returns an *EventValidationError; the caller (search.go) blames
// every subscription with INVALID_EVENT and returns without walking the
// tree.
func buildEnv(raw *RawEvent, d *Domains) (*Env, error) {
	n := d.count()
	env := &Env{
		Values:    make([]Value, n),
		Undefined: newBitmap(n),
		Now:       raw.Now,
	}
	for i := 0; i < n; i++ {
		dom := d.byID(i)
		v, ok := raw.Values[dom.Name]
		if !ok {
			if dom.Default != nil {
				env.Values[i] = *dom.Default
				continue
			}
			if !dom.AllowUndefined {
				return nil, &EventValidationError{Var: dom.Name, Msg: "required attribute missing from event"}
			}
			env.Undefined.set(i)
			continue
		}
		if err := validateValue(dom, v); err != nil {
			return nil, err
		}
		sortValueList(&v)
		env.Values[i] = v
	}
	return env, nil
}

func validateValue(dom *AttributeDomain, v Value) error {
	if v.Type != dom.Type {
		return &EventValidationError{Var: dom.Name, Msg: "type mismatch"}
	}
	switch dom.Type {
	case ValueString, ValueIntegerEnum:
		if float64(v.StringID) >= dom.Max || v.StringID < 0 {
			return &EventValidationError{Var: dom.Name, Msg: "interned id outside bounded enumeration"}
		}
	}
	return nil
}

// isUndefined reports whether variableID has no value in this event.
func (e *Env) isUndefined(variableID int) bool {
	return e.Undefined.test(variableID)
}

func (e *Env) value(variableID int) Value {
	return e.Values[variableID]
}

// idsContain does a binary search for id membership, used by search.go's
// optional candidate-id filter (§4.6 point 6).
func idsContain(ids []uint64, id uint64) bool {
	_, ok := slices.BinarySearch(ids, id)
	return ok
}
