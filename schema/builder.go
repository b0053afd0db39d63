package schema

// Builder assembles a Schema column by column.
type Builder struct {
	cols []Column
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddInt32 appends an Int32 column.
func (b *Builder) AddInt32(name string, nullable bool) *Builder {
	b.cols = append(b.cols, Column{Name: name, Type: Int32(), Nullable: nullable})
	return b
}

// AddUtf8 appends a Utf8 column.
func (b *Builder) AddUtf8(name string, nullable bool) *Builder {
	b.cols = append(b.cols, Column{Name: name, Type: Utf8(), Nullable: nullable})
	return b
}

// AddVector appends a Float32 vector column of dimension dim.
func (b *Builder) AddVector(name string, dim int, nullable bool) *Builder {
	b.cols = append(b.cols, Column{Name: name, Type: Vector(dim), Nullable: nullable})
	return b
}

// Build validates the accumulated columns.
func (b *Builder) Build() (*Schema, error) {
	return Define(b.cols...)
}
