// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

// Params holds the three tuning knobs from §6. There is no config-file
// parsing layer here — three scalars don't warrant one — but the shape
// (a plain struct passed to the constructor) follows the teacher's own
// RadixTree/Txn field-struct convention.
type Params struct {
	// LNodeMaxCap is the L-node overflow threshold; larger means wider
	// leaves and less partitioning.
	LNodeMaxCap int

	// PartitionMinSize is the minimum subscription count an attribute
	// must reach before it becomes eligible for a new P-node.
	PartitionMinSize int

	// MaxDomainForSplit upper-bounds the attribute domain width eligible
	// for C-dir splitting.
	MaxDomainForSplit float64

	// Logger narrates rebalancing decisions at Trace level. A nil Logger
	// is replaced with a no-op at tree construction.
	Logger Logger
}

// DefaultParams mirrors the reference betree implementation's defaults.
func DefaultParams() Params {
	return Params{
		LNodeMaxCap:       3,
		PartitionMinSize:  10,
		MaxDomainForSplit: 1000,
	}
}

func (p Params) withDefaults() Params {
	if p.LNodeMaxCap <= 0 {
		p.LNodeMaxCap = DefaultParams().LNodeMaxCap
	}
	if p.PartitionMinSize <= 0 {
		p.PartitionMinSize = DefaultParams().PartitionMinSize
	}
	if p.MaxDomainForSplit <= 0 {
		p.MaxDomainForSplit = DefaultParams().MaxDomainForSplit
	}
	if p.Logger == nil {
		p.Logger = noopLogger{}
	}
	return p
}

// roundUpCap rounds need up to the next multiple of unit that is >= need
// (never less than unit itself, so an empty leaf keeps one unit of
// capacity), the L-node "grows in multiples of lnode_max_cap" rule (§4.5).
func roundUpCap(unit, need int) int {
	if unit <= 0 {
		unit = 1
	}
	if need <= 0 {
		return unit
	}
	n := (need + unit - 1) / unit
	return n * unit
}
