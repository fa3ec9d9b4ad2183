package tuple

import (
	"fmt"

	dberror "storemy/pkg/error"
	"storemy/pkg/types"
)

// Tuple is one row: a sequence of Field values matching a TupleDescription,
// plus an optional RecordID once it has been placed on a page.
type Tuple struct {
	Desc     *TupleDescription
	Fields   []types.Field
	RecordID *RecordID
}

func NewTuple(desc *TupleDescription) *Tuple {
	return &Tuple{
		Desc:   desc,
		Fields: make([]types.Field, desc.NumFields()),
	}
}

func (t *Tuple) SetField(i int, f types.Field) error {
	if i < 0 || i >= len(t.Fields) {
		return dberror.NotFound(fmt.Sprintf("field index %d out of range", i))
	}

	want, err := t.Desc.TypeAt(i)
	if err != nil {
		return err
	}
	if f.GetType() != want {
		return fmt.Errorf("field %d expects type %s, got %s", i, want, f.GetType())
	}

	t.Fields[i] = f
	return nil
}

func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.Fields) {
		return nil, dberror.NotFound(fmt.Sprintf("field index %d out of range", i))
	}
	return t.Fields[i], nil
}

// Equals compares field values only, ignoring RecordID placement.
func (t *Tuple) Equals(other *Tuple) bool {
	if other == nil || len(t.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range t.Fields {
		if !f.Equals(other.Fields[i]) {
			return false
		}
	}
	return true
}

func (t *Tuple) String() string {
	s := ""
	for i, f := range t.Fields {
		if i > 0 {
			s += "\t"
		}
		s += f.String()
	}
	return s
}
