package types

import (
	"encoding/binary"
	"fmt"
	"io"

	dberror "storemy/pkg/error"
)

// IntField is a 4-byte signed integer, the INT variant of the closed field
// set.
type IntField struct {
	Value int32
}

func NewIntField(v int32) *IntField {
	return &IntField{Value: v}
}

func (f *IntField) GetType() Type {
	return IntType
}

func (f *IntField) String() string {
	return fmt.Sprintf("%d", f.Value)
}

// Serialize writes the field as 4 little-endian bytes, matching the heap
// page wire format.
func (f *IntField) Serialize(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, f.Value)
}

func (f *IntField) Equals(other Field) bool {
	o, ok := other.(*IntField)
	return ok && o.Value == f.Value
}

func (f *IntField) Hash() (uint32, error) {
	return uint32(f.Value), nil
}

func (f *IntField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*IntField)
	if !ok {
		return false, dberror.New(dberror.ErrCategoryUser, dberror.CodeNotFound, "cannot compare IntField to a different field type")
	}

	switch op {
	case Equals:
		return f.Value == o.Value, nil
	case NotEquals:
		return f.Value != o.Value, nil
	case LessThan:
		return f.Value < o.Value, nil
	case LessThanOrEqual:
		return f.Value <= o.Value, nil
	case GreaterThan:
		return f.Value > o.Value, nil
	case GreaterThanOrEqual:
		return f.Value >= o.Value, nil
	default:
		return false, fmt.Errorf("unknown predicate %d", op)
	}
}

// DeserializeInt reads a 4-byte little-endian IntField from r.
func DeserializeInt(r io.Reader) (*IntField, error) {
	var v int32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return nil, err
	}
	return &IntField{Value: v}, nil
}
