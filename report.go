// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

// Report is the per-match outcome (§4.7): counters, the ordered list of
// matched subscription ids, and a reason map bucketing every non-match
// by its blamed attribute or sentinel. It has exactly
// attr_domain_count + 3 buckets — one per attribute, plus GEO,
// INVALID_EVENT, UNKNOWN, in that trailing order (§9 DESIGN NOTES: the
// dense array is the adopted representation, not a hash table).
type Report struct {
	Evaluated int
	Memoized  int
	Shorted   int

	Matched []uint64

	reasons      [][]uint64
	domainCount  int
}

// NewReport allocates a Report for tree; it owns no reference back to
// the tree beyond the attribute count needed to size its buckets.
func (t *Tree) NewReport() *Report {
	n := t.domains.count()
	return &Report{
		reasons:     make([][]uint64, n+3),
		domainCount: n,
	}
}

func (r *Report) addMatch(id uint64) {
	r.Matched = append(r.Matched, id)
}

func (r *Report) addReason(blame Blame, id uint64) {
	idx := blame.bucketIndex(r.domainCount)
	r.reasons[idx] = append(r.reasons[idx], id)
}

// MatchedCount is the number of subscriptions that matched.
func (r *Report) MatchedCount() int { return len(r.Matched) }

// ReasonsForAttribute returns the subscription ids blamed on the given
// variable id.
func (r *Report) ReasonsForAttribute(variableID int) []uint64 {
	return r.reasons[variableID]
}

// ReasonsGeo, ReasonsInvalidEvent and ReasonsUnknown return the three
// sentinel buckets (§4.7).
func (r *Report) ReasonsGeo() []uint64          { return r.reasons[r.domainCount] }
func (r *Report) ReasonsInvalidEvent() []uint64 { return r.reasons[r.domainCount+1] }
func (r *Report) ReasonsUnknown() []uint64      { return r.reasons[r.domainCount+2] }

// blameAllInvalidEvent charges every subscription with INVALID_EVENT,
// used when event validation fails before the tree walk starts (§4.6
// step 2).
func (r *Report) blameAllInvalidEvent(ids []uint64) {
	bucket := &r.reasons[r.domainCount+1]
	*bucket = append(*bucket, ids...)
}
