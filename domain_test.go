// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainsRegisterAssignsDenseIds(t *testing.T) {
	d := newDomains()
	a, err := d.register("age", ValueInteger, false, 0, 120)
	require.NoError(t, err)
	require.Equal(t, 0, a.VariableID)

	b, err := d.register("country", ValueString, true, 0, 4)
	require.NoError(t, err)
	require.Equal(t, 1, b.VariableID)

	require.Equal(t, 2, d.count())

	_, err = d.register("age", ValueInteger, false, 0, 120)
	require.Error(t, err)
}

func TestDomainWidenNeverShrinks(t *testing.T) {
	d := newDomains()
	dom, _ := d.register("price", ValueFloat, false, 10, 20)
	dom.widen(5)
	require.Equal(t, 5.0, dom.Min)
	dom.widen(50)
	require.Equal(t, 50.0, dom.Max)
	dom.widen(30)
	require.Equal(t, 50.0, dom.Max)
	require.Equal(t, 5.0, dom.Min)
}

func TestValueBoundUnionAndContains(t *testing.T) {
	a := ValueBound{Min: 0, Max: 10}
	b := ValueBound{Min: 20, Max: 30}
	u := a.union(b)
	require.Equal(t, 0.0, u.Min)
	require.Equal(t, 30.0, u.Max)
	require.True(t, u.contains(25))
	require.False(t, a.contains(25))

	unb := unboundedBound()
	require.True(t, unb.union(a).Unbounded)
}

func TestValueBoundEnclosesBool(t *testing.T) {
	full := ValueBound{IsBoolBound: true, BoolMin: false, BoolMax: true}
	trueOnly := ValueBound{IsBoolBound: true, BoolMin: true, BoolMax: true}
	require.True(t, full.encloses(trueOnly))
	require.False(t, trueOnly.encloses(full))
}
