package models

// SourceDocument is a loaded source file whose pages can be placed in a
// workspace. Implementations own any rendering resources; Close releases
// them.
type SourceDocument interface {
	NumPages() int
	Bytes() []byte
	Close() error
}

// Rotation is a page rotation in degrees. Valid values are 0, 90, 180
// and 270.
type Rotation int

// Normalize maps any multiple of 90 (including negatives) onto [0, 360).
func (r Rotation) Normalize() Rotation {
	return ((r % 360) + 360) % 360
}

// RotateRight returns r turned 90 degrees clockwise.
func (r Rotation) RotateRight() Rotation {
	return (r + 90).Normalize()
}

// RotateLeft returns r turned 90 degrees counter-clockwise.
func (r Rotation) RotateLeft() Rotation {
	return (r - 90).Normalize()
}

// PageReference is one page of a source document as placed in the
// workspace. Its identity is stable across moves; only the rotation
// changes after creation.
type PageReference struct {
	id               string
	doc              SourceDocument
	sourcePageNumber int
	rotation         Rotation
	fileName         string
}

// NewPageReference creates a reference to the 1-based page number of doc.
func NewPageReference(id string, doc SourceDocument, sourcePageNumber int, fileName string) *PageReference {
	return &PageReference{
		id:               id,
		doc:              doc,
		sourcePageNumber: sourcePageNumber,
		fileName:         fileName,
	}
}

func (p *PageReference) ID() string               { return p.id }
func (p *PageReference) Document() SourceDocument { return p.doc }
func (p *PageReference) SourcePageNumber() int    { return p.sourcePageNumber }
func (p *PageReference) Rotation() Rotation       { return p.rotation }
func (p *PageReference) FileName() string         { return p.fileName }

// SetRotation stores r after normalizing it.
func (p *PageReference) SetRotation(r Rotation) {
	p.rotation = r.Normalize()
}
