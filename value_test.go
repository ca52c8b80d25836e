// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package betree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloatEquals(t *testing.T) {
	require.True(t, floatEquals(1.0, 1.0+1e-12))
	require.False(t, floatEquals(1.0, 1.1))
}

func TestValueConstructors(t *testing.T) {
	require.Equal(t, ValueBoolean, BoolValue(true).Type)
	require.Equal(t, ValueInteger, IntValue(7).Type)
	require.Equal(t, int64(7), IntValue(7).Integer)
	require.Equal(t, ValueFloat, FloatValue(1.5).Type)
	require.Equal(t, ValueString, StringValue(3, "us").Type)
	require.Equal(t, "us", StringValue(3, "us").StringText)
	require.Equal(t, ValueIntegerEnum, EnumValue(2).Type)
}

func TestValueTypeString(t *testing.T) {
	require.Equal(t, "boolean", ValueBoolean.String())
	require.Equal(t, "frequency_caps", ValueFrequencyCaps.String())
	require.Equal(t, "unknown", ValueType(255).String())
}
