// Package document renders registrant confirmation PDFs from an AcroForm
// template: form fill, lock, QR stamp on page 1 and an optional certificate
// image on page 3.
package document

// Anchor names a page position for stamped images.
type Anchor string

const (
	AnchorBottomRight Anchor = "br"
	AnchorTopCenter   Anchor = "tc"
)

// Stamp places an image on one page. Offsets are in points from the anchor;
// Scale multiplies the image's pixel size (1px = 1pt).
type Stamp struct {
	Page    int
	Image   []byte
	Anchor  Anchor
	OffsetX float64
	OffsetY float64
	Scale   float64
}

// Engine is the PDF backend. Every call takes and returns whole documents.
type Engine interface {
	FieldNames(pdf []byte) ([]string, error)
	FillForm(pdf []byte, values map[string]string) ([]byte, error)
	Lock(pdf []byte) ([]byte, error)
	PageCount(pdf []byte) (int, error)
	PageSize(pdf []byte, page int) (width, height float64, err error)
	AppendPages(pdf []byte, n int) ([]byte, error)
	Stamp(pdf []byte, s Stamp) ([]byte, error)
	InstallFont(path string) error
}
