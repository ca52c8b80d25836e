// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

import (
	"hash/fnv"
	"testing"

	"github.com/hashicorp/go-uuid"
	"github.com/stretchr/testify/require"
)

func TestTreeRegisterAndInsert(t *testing.T) {
	tr := New(DefaultParams())
	age, err := tr.RegisterInteger("age", false, 0, 120)
	require.NoError(t, err)

	err = tr.Insert(1, &CompareExpr{Op: OpGT, Variable: age.VariableID, Int: 18})
	require.NoError(t, err)
	require.Equal(t, 1, tr.Len())

	err = tr.Insert(1, &CompareExpr{Op: OpGT, Variable: age.VariableID, Int: 21})
	require.Error(t, err)
	var ie *InsertionError
	require.ErrorAs(t, err, &ie)
}

func TestTreeAttributeByName(t *testing.T) {
	tr := New(DefaultParams())
	_, err := tr.RegisterBoolean("vip", true)
	require.NoError(t, err)
	dom, ok := tr.AttributeByName("vip")
	require.True(t, ok)
	require.Equal(t, ValueBoolean, dom.Type)

	_, ok = tr.AttributeByName("missing")
	require.False(t, ok)
}

func TestTreeWalkEnumeratesEveryInsertedSubscription(t *testing.T) {
	tr := New(DefaultParams())
	age, err := tr.RegisterInteger("age", false, 0, 120)
	require.NoError(t, err)

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, tr.Insert(i, &CompareExpr{Op: OpGT, Variable: age.VariableID, Int: int64(i)}))
	}

	seen := make(map[uint64]bool)
	tr.Walk(func(s *Subscription) bool {
		seen[s.ID] = true
		return true
	})
	require.Len(t, seen, 5)
}

func TestTreeWalkStopsEarly(t *testing.T) {
	tr := New(DefaultParams())
	age, err := tr.RegisterInteger("age", false, 0, 120)
	require.NoError(t, err)
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, tr.Insert(i, &CompareExpr{Op: OpGT, Variable: age.VariableID, Int: int64(i)}))
	}
	count := 0
	tr.Walk(func(s *Subscription) bool {
		count++
		return false
	})
	require.Equal(t, 1, count)
}

// idFromUUID turns a random uuid into a uint64 subscription id, mirroring
// the teacher's own bulk-insert test pattern of generating many distinct
// ids via github.com/hashicorp/go-uuid.
func idFromUUID(t *testing.T) uint64 {
	t.Helper()
	s, err := uuid.GenerateUUID()
	require.NoError(t, err)
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func TestTreeSpacePartitionsWhenAttributeOverflowsLeaf(t *testing.T) {
	params := DefaultParams()
	params.LNodeMaxCap = 2
	params.PartitionMinSize = 3
	tr := New(params)
	age, err := tr.RegisterInteger("age", false, 0, 1000)
	require.NoError(t, err)

	ids := make(map[uint64]bool)
	for i := 0; i < 50; i++ {
		id := idFromUUID(t)
		for ids[id] {
			id = idFromUUID(t)
		}
		ids[id] = true
		require.NoError(t, tr.Insert(id, &CompareExpr{Op: OpGT, Variable: age.VariableID, Int: int64(i % 10)}))
	}
	require.Equal(t, 50, tr.Len())
	require.NotNil(t, tr.root.pdir, "inserting past lnode_max_cap on a shared attribute must partition")

	seen := make(map[uint64]bool)
	tr.Walk(func(s *Subscription) bool {
		seen[s.ID] = true
		return true
	})
	require.Len(t, seen, 50)
}

func TestInsertWithConstantsBindsFrequencyCap(t *testing.T) {
	tr := New(DefaultParams())
	caps, err := tr.RegisterFrequencyCaps("caps", true)
	require.NoError(t, err)

	expr := &SpecialExpr{
		Kind:              SpecialFrequencyCap,
		Variable:          caps.VariableID,
		FreqCapType:       "click",
		FreqCapID:         "campaign-1",
		FreqCapNamespace:  "ns",
		MaxValueConstName: "max_clicks",
		LengthConstName:   "window_seconds",
	}
	err = tr.InsertWithConstants(1, []Constant{
		{Name: "max_clicks", Value: 3},
		{Name: "window_seconds", Value: 3600},
	}, expr)
	require.NoError(t, err)
	require.Equal(t, uint32(3), expr.FreqCapMaxValue)
	require.Equal(t, int64(3600), expr.FreqCapLength)
}

func TestInsertWithConstantsMissingConstantErrors(t *testing.T) {
	tr := New(DefaultParams())
	caps, err := tr.RegisterFrequencyCaps("caps", true)
	require.NoError(t, err)

	expr := &SpecialExpr{
		Kind:              SpecialFrequencyCap,
		Variable:          caps.VariableID,
		MaxValueConstName: "max_clicks",
	}
	err = tr.InsertWithConstants(1, nil, expr)
	require.Error(t, err)
}
