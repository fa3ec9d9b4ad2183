package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"strings"

	dberror "storemy/pkg/error"
)

// StringFieldMaxSize is the padded payload width of a STRING field, not
// counting its 4-byte length prefix.
const StringFieldMaxSize = 128

// StringField is a variable-length string truncated/padded to
// StringFieldMaxSize bytes on disk, the STRING variant of the closed field
// set.
type StringField struct {
	Value string
}

func NewStringField(v string) *StringField {
	if len(v) > StringFieldMaxSize {
		v = v[:StringFieldMaxSize]
	}
	return &StringField{Value: v}
}

func (f *StringField) GetType() Type {
	return StringType
}

func (f *StringField) String() string {
	return f.Value
}

// Serialize writes a 4-byte little-endian length followed by the value
// padded with zero bytes to StringFieldMaxSize, matching the width
// StringType.Bytes reports for the heap page wire format.
func (f *StringField) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(f.Value))); err != nil {
		return err
	}

	padded := make([]byte, StringFieldMaxSize)
	copy(padded, f.Value)
	_, err := w.Write(padded)
	return err
}

func (f *StringField) Equals(other Field) bool {
	o, ok := other.(*StringField)
	return ok && o.Value == f.Value
}

func (f *StringField) Hash() (uint32, error) {
	h := fnv.New32a()
	if _, err := h.Write([]byte(f.Value)); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}

func (f *StringField) Compare(op Predicate, other Field) (bool, error) {
	o, ok := other.(*StringField)
	if !ok {
		return false, dberror.New(dberror.ErrCategoryUser, dberror.CodeNotFound, "cannot compare StringField to a different field type")
	}

	cmp := strings.Compare(f.Value, o.Value)
	switch op {
	case Equals:
		return cmp == 0, nil
	case NotEquals:
		return cmp != 0, nil
	case LessThan:
		return cmp < 0, nil
	case LessThanOrEqual:
		return cmp <= 0, nil
	case GreaterThan:
		return cmp > 0, nil
	case GreaterThanOrEqual:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("unknown predicate %d", op)
	}
}

// DeserializeString reads a length-prefixed, zero-padded STRING field.
func DeserializeString(r io.Reader) (*StringField, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}

	buf := make([]byte, StringFieldMaxSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	if length > StringFieldMaxSize {
		length = StringFieldMaxSize
	}
	return &StringField{Value: string(buf[:length])}, nil
}
