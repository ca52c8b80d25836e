// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

import (
	"testing"

	"golang.org/x/exp/slices"

	"github.com/stretchr/testify/require"
)

func newSearchTestTree(t *testing.T) (*Tree, int, int, int) {
	t.Helper()
	tr := New(DefaultParams())
	age, err := tr.RegisterInteger("age", false, 0, 120)
	require.NoError(t, err)
	country, err := tr.RegisterBoundedEnum("country", false, 4)
	require.NoError(t, err)
	vip, err := tr.RegisterBoolean("vip", true)
	require.NoError(t, err)

	// sub 1: age > 18 AND country == US(0)
	require.NoError(t, tr.Insert(1, &BoolExpr{
		Op:   OpAnd,
		Left: &CompareExpr{Op: OpGT, Variable: age.VariableID, Int: 18},
		Right: &EqualityExpr{Op: OpEQ, Variable: country.VariableID, Const: EnumValue(0)},
	}))
	// sub 2: age < 18 OR vip
	require.NoError(t, tr.Insert(2, &BoolExpr{
		Op:    OpOr,
		Left:  &CompareExpr{Op: OpLT, Variable: age.VariableID, Int: 18},
		Right: &BoolExpr{Op: OpVariable, Variable: vip.VariableID},
	}))
	// sub 3: country == FR(1)
	require.NoError(t, tr.Insert(3, &EqualityExpr{Op: OpEQ, Variable: country.VariableID, Const: EnumValue(1)}))

	return tr, age.VariableID, country.VariableID, vip.VariableID
}

func TestSearchMatchesAndBlames(t *testing.T) {
	tr, _, country, vip := newSearchTestTree(t)

	rep := tr.NewReport()
	err := tr.Search(&RawEvent{
		Values: map[string]Value{
			"age":     IntValue(25),
			"country": EnumValue(0),
		},
		Now: 1,
	}, rep)
	require.NoError(t, err)

	require.ElementsMatch(t, []uint64{1}, rep.Matched)
	require.ElementsMatch(t, []uint64{2}, rep.ReasonsForAttribute(vip))
	require.ElementsMatch(t, []uint64{3}, rep.ReasonsForAttribute(country))
}

func TestSearchVipForcesSubscriptionTwoToMatch(t *testing.T) {
	tr, _, _, _ := newSearchTestTree(t)

	rep := tr.NewReport()
	err := tr.Search(&RawEvent{
		Values: map[string]Value{
			"age":     IntValue(25),
			"country": EnumValue(1),
			"vip":     BoolValue(true),
		},
		Now: 1,
	}, rep)
	require.NoError(t, err)

	require.ElementsMatch(t, []uint64{2, 3}, rep.Matched)
}

func TestSearchInvalidEventBlamesEveryone(t *testing.T) {
	tr, _, _, _ := newSearchTestTree(t)

	rep := tr.NewReport()
	err := tr.Search(&RawEvent{
		Values: map[string]Value{
			"age":     FloatValue(25), // wrong type for an integer attribute
			"country": EnumValue(0),
		},
		Now: 1,
	}, rep)
	require.Error(t, err)
	var eve *EventValidationError
	require.ErrorAs(t, err, &eve)
	require.Empty(t, rep.Matched)
	require.ElementsMatch(t, []uint64{1, 2, 3}, rep.ReasonsInvalidEvent())
}

func TestSearchIdsFilterRestrictsCandidates(t *testing.T) {
	tr, _, _, _ := newSearchTestTree(t)

	ids := []uint64{1}
	slices.Sort(ids)
	rep := tr.NewReport()
	err := tr.SearchIds(&RawEvent{
		Values: map[string]Value{
			"age":     IntValue(25),
			"country": EnumValue(0),
		},
		Now: 1,
	}, rep, ids)
	require.NoError(t, err)

	require.ElementsMatch(t, []uint64{1}, rep.Matched)
	require.Empty(t, rep.ReasonsForAttribute(0))
	// subscriptions 2 and 3 are filtered out entirely, not blamed.
	all := append(append([]uint64{}, rep.Matched...), flattenReasons(rep)...)
	require.ElementsMatch(t, []uint64{1}, all)
}

func TestSearchWithEventReusesBuiltEnv(t *testing.T) {
	tr, _, _, _ := newSearchTestTree(t)
	env, err := buildEnv(&RawEvent{Values: map[string]Value{
		"age":     IntValue(25),
		"country": EnumValue(0),
	}}, tr.domains)
	require.NoError(t, err)

	rep1 := tr.NewReport()
	tr.SearchWithEvent(env, rep1)
	rep2 := tr.NewReport()
	tr.SearchWithEvent(env, rep2)

	require.ElementsMatch(t, rep1.Matched, rep2.Matched)
}

func flattenReasons(rep *Report) []uint64 {
	var out []uint64
	for i := 0; i < rep.domainCount+3; i++ {
		out = append(out, rep.reasons[i]...)
	}
	return out
}
