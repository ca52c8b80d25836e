// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMembershipContains(t *testing.T) {
	list := Value{Type: ValueIntegerList, IntegerList: []int64{1, 3, 5, 7}}
	require.True(t, membershipContains(list, IntValue(5)))
	require.False(t, membershipContains(list, IntValue(4)))
}

func TestEvalListOpOneOfNoneOfAllOf(t *testing.T) {
	lit := Value{Type: ValueIntegerList, IntegerList: []int64{2, 4, 6}}
	ev := Value{Type: ValueIntegerList, IntegerList: []int64{1, 2, 3, 4}}

	require.True(t, evalListOp(OpOneOf, lit, ev))
	require.False(t, evalListOp(OpNoneOf, lit, ev))
	require.False(t, evalListOp(OpAllOf, lit, ev))

	require.True(t, evalListOp(OpAllOf, Value{Type: ValueIntegerList, IntegerList: []int64{2, 4}}, ev))
}

func TestGallopAllPresent(t *testing.T) {
	require.True(t, gallopAllPresent([]int64{1, 2, 3}, []int64{0, 1, 2, 3, 4}))
	require.False(t, gallopAllPresent([]int64{1, 2, 9}, []int64{0, 1, 2, 3, 4}))
	require.True(t, gallopAllPresent(nil, []int64{1, 2}))
}

func TestIntersects(t *testing.T) {
	require.True(t, intersects([]int64{1, 5, 9}, []int64{2, 5, 7}))
	require.False(t, intersects([]int64{1, 5, 9}, []int64{2, 6, 7}))
}
