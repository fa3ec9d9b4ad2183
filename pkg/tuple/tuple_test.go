package tuple_test

import (
	"testing"

	"storemy/pkg/tuple"
	"storemy/pkg/types"

	"github.com/stretchr/testify/require"
)

func testDesc(t *testing.T) *tuple.TupleDescription {
	td, err := tuple.NewTupleDescription(
		[]types.Type{types.IntType, types.StringType},
		[]string{"id", "name"},
	)
	require.NoError(t, err)
	return td
}

func TestBuilderBuildsTuple(t *testing.T) {
	td := testDesc(t)

	tup, err := tuple.NewBuilder(td).AddInt(1).AddString("alice").Build()
	require.NoError(t, err)

	idField, err := tup.GetField(0)
	require.NoError(t, err)
	require.Equal(t, types.IntType, idField.GetType())

	nameField, err := tup.GetField(1)
	require.NoError(t, err)
	require.Equal(t, "alice", nameField.String())
}

func TestSetFieldRejectsTypeMismatch(t *testing.T) {
	td := testDesc(t)
	tup := tuple.NewTuple(td)

	err := tup.SetField(0, types.NewStringField("wrong type"))
	require.Error(t, err)
}

func TestSetFieldRejectsOutOfRangeIndex(t *testing.T) {
	td := testDesc(t)
	tup := tuple.NewTuple(td)

	err := tup.SetField(5, types.NewIntField(1))
	require.Error(t, err)
}

func TestTupleEqualsIgnoresRecordID(t *testing.T) {
	td := testDesc(t)

	a, err := tuple.NewBuilder(td).AddInt(1).AddString("x").Build()
	require.NoError(t, err)
	b, err := tuple.NewBuilder(td).AddInt(1).AddString("x").Build()
	require.NoError(t, err)

	a.RecordID = tuple.NewRecordID(nil, 3)
	require.True(t, a.Equals(b))
}

func TestTupleDescriptionSize(t *testing.T) {
	td := testDesc(t)
	require.Equal(t, 4+types.StringFieldMaxSize+4, td.Size())
}

func TestNewTupleDescriptionRejectsMismatchedLengths(t *testing.T) {
	_, err := tuple.NewTupleDescription([]types.Type{types.IntType}, []string{"a", "b"})
	require.Error(t, err)
}
