package types_test

import (
	"bytes"
	"testing"

	"storemy/pkg/types"

	"github.com/stretchr/testify/require"
)

func TestIntFieldSerializeRoundTrip(t *testing.T) {
	f := types.NewIntField(-42)

	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))
	require.Equal(t, 4, buf.Len())

	got, err := types.DeserializeInt(&buf)
	require.NoError(t, err)
	require.True(t, f.Equals(got))
}

func TestStringFieldSerializeRoundTrip(t *testing.T) {
	f := types.NewStringField("hello")

	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))
	require.Equal(t, types.StringFieldMaxSize+4, buf.Len())

	got, err := types.DeserializeString(&buf)
	require.NoError(t, err)
	require.True(t, f.Equals(got))
}

func TestStringFieldTruncatesOnConstruction(t *testing.T) {
	long := make([]byte, types.StringFieldMaxSize+10)
	for i := range long {
		long[i] = 'a'
	}

	f := types.NewStringField(string(long))
	require.Len(t, f.Value, types.StringFieldMaxSize)
}

func TestIntFieldCompare(t *testing.T) {
	a := types.NewIntField(5)
	b := types.NewIntField(10)

	lt, err := a.Compare(types.LessThan, b)
	require.NoError(t, err)
	require.True(t, lt)

	eq, err := a.Compare(types.Equals, a)
	require.NoError(t, err)
	require.True(t, eq)
}

func TestFieldCompareTypeMismatch(t *testing.T) {
	a := types.NewIntField(5)
	b := types.NewStringField("5")

	_, err := a.Compare(types.Equals, b)
	require.Error(t, err)
}
