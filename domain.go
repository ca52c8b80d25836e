// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

import "math"

var negInf = math.Inf(-1)
var posInf = math.Inf(1)

// ValueBound is the tightest range of a variable's value that can still
// make some expression true. Numeric bounds are a closed [Min, Max]
// interval; bounded-string/enum bounds are the same closed interval over
// interned ids (a full-domain bound is [0, Count], Count being the
// domain's Max). Unbounded means "not affected by this variable" (§4.2):
// the expression must be treated as replicated across the attribute's
// full domain.
type ValueBound struct {
	Min, Max     float64
	Unbounded    bool
	IsBoolBound  bool
	BoolMin      bool
	BoolMax      bool
}

func fullBound(d *AttributeDomain) ValueBound {
	switch d.Type {
	case ValueBoolean:
		return ValueBound{IsBoolBound: true, BoolMin: false, BoolMax: true}
	default:
		return ValueBound{Min: d.Min, Max: d.Max}
	}
}

func emptyBound() ValueBound {
	return ValueBound{Unbounded: false, Min: math.Inf(1), Max: math.Inf(-1)}
}

func unboundedBound() ValueBound {
	return ValueBound{Unbounded: true, Min: math.Inf(-1), Max: math.Inf(1)}
}

// union is the conservative over-approximation §4.2 requires for and/or:
// the result must contain every value either bound admits.
func (b ValueBound) union(o ValueBound) ValueBound {
	if b.Unbounded || o.Unbounded {
		return unboundedBound()
	}
	if b.IsBoolBound || o.IsBoolBound {
		return ValueBound{
			IsBoolBound: true,
			BoolMin:     b.BoolMin && o.BoolMin,
			BoolMax:     b.BoolMax || o.BoolMax,
		}
	}
	return ValueBound{Min: math.Min(b.Min, o.Min), Max: math.Max(b.Max, o.Max)}
}

// contains reports whether v could plausibly satisfy an expression with
// this bound; used both by tree placement and by the C-dir descend test.
func (b ValueBound) contains(v float64) bool {
	if b.Unbounded {
		return true
	}
	return v >= b.Min && v <= b.Max
}

// containsScalar is contains, generalized to bool bounds, for testing a
// single event value against a C-dir's interval during the search walk.
func (b ValueBound) containsScalar(v float64) bool {
	if b.IsBoolBound {
		lo, hi := 0.0, 1.0
		if b.BoolMin {
			lo = 1
		}
		if !b.BoolMax {
			hi = 0
		}
		return v >= lo && v <= hi
	}
	return b.contains(v)
}

func (b ValueBound) width() float64 {
	if b.IsBoolBound {
		if b.BoolMin == b.BoolMax {
			return 0
		}
		return 1
	}
	if b.Unbounded {
		return math.Inf(1)
	}
	return b.Max - b.Min
}

// AttributeDomain is the registered, frozen metadata for one attribute.
type AttributeDomain struct {
	Name           string
	VariableID     int
	Type           ValueType
	AllowUndefined bool

	// Numeric / count bound. For ValueString and ValueIntegerEnum, Max is
	// the admissible-id count (bound is [0, Max)).
	Min, Max float64

	Default *Value
}

// Domains holds the frozen schema assembled before any subscription is
// inserted. VariableID assignment is a dense monotonic counter, mirroring
// the teacher's maxNodeId bookkeeping in tree.go.
type Domains struct {
	byName []*AttributeDomain
	index  map[string]int
}

func newDomains() *Domains {
	return &Domains{index: make(map[string]int)}
}

func (d *Domains) register(name string, typ ValueType, allowUndefined bool, min, max float64) (*AttributeDomain, error) {
	if _, ok := d.index[name]; ok {
		return nil, &ValidationError{Var: name, Msg: "attribute already registered"}
	}
	dom := &AttributeDomain{
		Name:           name,
		VariableID:     len(d.byName),
		Type:           typ,
		AllowUndefined: allowUndefined,
		Min:            min,
		Max:            max,
	}
	d.index[name] = dom.VariableID
	d.byName = append(d.byName, dom)
	return dom, nil
}

func (d *Domains) byNameLookup(name string) (*AttributeDomain, bool) {
	id, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.byName[id], true
}

func (d *Domains) byID(id int) *AttributeDomain {
	return d.byName[id]
}

func (d *Domains) count() int {
	return len(d.byName)
}

// widen grows a numeric domain's bound to enclose v, never shrinking it
// (P3: bound monotonicity).
func (d *AttributeDomain) widen(v float64) {
	if v < d.Min {
		d.Min = v
	}
	if v > d.Max {
		d.Max = v
	}
}
