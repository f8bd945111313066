package extraction

// FieldType is the PDF field type (the FT entry of a field dictionary).
type FieldType string

const (
	FieldTypeText      FieldType = "Tx"
	FieldTypeButton    FieldType = "Btn"
	FieldTypeChoice    FieldType = "Ch"
	FieldTypeSignature FieldType = "Sig"
)

// Field flag bits (Ff entry), PDF 1.7 tables 226, 228 and 230.
const (
	FlagReadOnly    = 1 << 0
	FlagRequired    = 1 << 1
	FlagMultiline   = 1 << 12
	FlagRadio       = 1 << 15
	FlagPushbutton  = 1 << 16
	FlagCombo       = 1 << 17
	FlagMultiSelect = 1 << 21
)

// Rect is an annotation rectangle in PDF user space, normalised so that
// [0],[1] is the lower-left and [2],[3] the upper-right corner.
type Rect [4]float64

// NormalizeRect orders the corners of r.
func NormalizeRect(r Rect) Rect {
	if r[0] > r[2] {
		r[0], r[2] = r[2], r[0]
	}
	if r[1] > r[3] {
		r[1], r[3] = r[3], r[1]
	}
	return r
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 {
	return r[2] - r[0]
}

// Height returns the vertical extent of r.
func (r Rect) Height() float64 {
	return r[3] - r[1]
}

// Option is one entry of a choice field.
type Option struct {
	ExportValue  string `json:"exportValue"`
	DisplayValue string `json:"displayValue"`
}

// Annotation is a widget annotation together with the field it belongs to.
// Field properties are resolved through the /Parent chain.
type Annotation struct {
	ID          string    `json:"id"`
	Page        int       `json:"page"`
	FieldName   string    `json:"fieldName"`
	FieldType   FieldType `json:"fieldType"`
	FieldValue  string    `json:"fieldValue,omitempty"`
	ExportValue string    `json:"exportValue,omitempty"`
	CheckBox    bool      `json:"checkBox,omitempty"`
	RadioButton bool      `json:"radioButton,omitempty"`
	PushButton  bool      `json:"pushButton,omitempty"`
	Combo       bool      `json:"combo,omitempty"`
	MultiSelect bool      `json:"multiSelect,omitempty"`
	Multiline   bool      `json:"multiline,omitempty"`
	ReadOnly    bool      `json:"readOnly,omitempty"`
	Required    bool      `json:"required,omitempty"`
	MaxLen      int       `json:"maxLen,omitempty"`
	Options     []Option  `json:"options,omitempty"`
	Rect        Rect      `json:"rect"`
}

// Page is one page of the document with the widgets placed on it.
type Page struct {
	Number      int          `json:"number"`
	Width       float64      `json:"width"`
	Height      float64      `json:"height"`
	Annotations []Annotation `json:"annotations"`
}

// Document is the extracted page and form structure of a PDF.
type Document struct {
	Pages []Page `json:"pages"`
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Annotations returns all widget annotations in page order.
func (d *Document) Annotations() []Annotation {
	var all []Annotation
	for _, p := range d.Pages {
		all = append(all, p.Annotations...)
	}
	return all
}

// CountByType counts annotations per field type.
func (d *Document) CountByType() map[FieldType]int {
	counts := make(map[FieldType]int)
	for _, p := range d.Pages {
		for _, a := range p.Annotations {
			counts[a.FieldType]++
		}
	}
	return counts
}
