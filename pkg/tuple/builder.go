package tuple

import "storemy/pkg/types"

// Builder assembles a Tuple field by field, mirroring the order of its
// TupleDescription. Build returns an error if a field was added with the
// wrong type for its position.
type Builder struct {
	desc   *TupleDescription
	fields []types.Field
}

func NewBuilder(desc *TupleDescription) *Builder {
	return &Builder{desc: desc, fields: make([]types.Field, 0, desc.NumFields())}
}

func (b *Builder) AddInt(v int32) *Builder {
	b.fields = append(b.fields, types.NewIntField(v))
	return b
}

func (b *Builder) AddString(v string) *Builder {
	b.fields = append(b.fields, types.NewStringField(v))
	return b
}

func (b *Builder) Build() (*Tuple, error) {
	t := NewTuple(b.desc)
	for i, f := range b.fields {
		if err := t.SetField(i, f); err != nil {
			return nil, err
		}
	}
	return t, nil
}
