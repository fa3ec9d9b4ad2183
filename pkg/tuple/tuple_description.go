package tuple

import (
	"fmt"

	dberror "storemy/pkg/error"
	"storemy/pkg/types"
)

// FieldDescription names and types one column.
type FieldDescription struct {
	Type types.Type
	Name string
}

// TupleDescription is the ordered schema every Tuple on a page conforms to.
// Its width in bytes, and therefore the page's slot count, is entirely
// determined by the field types.
type TupleDescription struct {
	Fields []FieldDescription
}

func NewTupleDescription(types []types.Type, names []string) (*TupleDescription, error) {
	if len(types) != len(names) {
		return nil, fmt.Errorf("field type count (%d) does not match field name count (%d)", len(types), len(names))
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("tuple description must have at least one field")
	}

	fields := make([]FieldDescription, len(types))
	for i := range types {
		fields[i] = FieldDescription{Type: types[i], Name: names[i]}
	}
	return &TupleDescription{Fields: fields}, nil
}

func (td *TupleDescription) NumFields() int {
	return len(td.Fields)
}

func (td *TupleDescription) TypeAt(i int) (types.Type, error) {
	if i < 0 || i >= len(td.Fields) {
		return 0, dberror.NotFound(fmt.Sprintf("field index %d out of range", i))
	}
	return td.Fields[i].Type, nil
}

func (td *TupleDescription) NameAt(i int) (string, error) {
	if i < 0 || i >= len(td.Fields) {
		return "", dberror.NotFound(fmt.Sprintf("field index %d out of range", i))
	}
	return td.Fields[i].Name, nil
}

// Size is the fixed byte width of one tuple record under this schema, not
// counting the page's shared header bitmap.
func (td *TupleDescription) Size() int {
	total := 0
	for _, f := range td.Fields {
		total += f.Type.Bytes()
	}
	return total
}

func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if other == nil || len(td.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range td.Fields {
		if f.Type != other.Fields[i].Type {
			return false
		}
	}
	return true
}

func (td *TupleDescription) String() string {
	s := ""
	for i, f := range td.Fields {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s(%s)", f.Name, f.Type)
	}
	return s
}
