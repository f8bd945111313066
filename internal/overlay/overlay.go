// Package overlay maps form widgets onto HTML controls positioned over a
// rendered page.
//
// A page rendered at scale s occupies a viewport of (width*s) x (height*s)
// CSS pixels with the origin at the top-left, while PDF user space has its
// origin at the bottom-left. A widget rectangle [x1 y1 x2 y2] therefore
// lands at left = x1*s and top = viewportHeight - y2*s.
package overlay

import (
	"fmt"
	"strconv"

	"github.com/a3tai/pdf-form-viewer/internal/pdf/extraction"
)

// CheckedValue is the field value that marks a button as selected.
const CheckedValue = "Yes"

// Kind is the HTML control used for a widget.
type Kind string

const (
	KindText     Kind = "text"
	KindCheckbox Kind = "checkbox"
	KindRadio    Kind = "radio"
	KindSelect   Kind = "select"
)

// Viewport is the pixel area a page is rendered into.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// NewViewport scales a page size in points to pixels.
func NewViewport(pageWidth, pageHeight, scale float64) Viewport {
	return Viewport{
		Width:  pageWidth * scale,
		Height: pageHeight * scale,
		Scale:  scale,
	}
}

// Box is an absolutely positioned rectangle in viewport pixels.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Position maps a widget rectangle into the viewport, flipping the
// vertical axis.
func Position(r extraction.Rect, vp Viewport) Box {
	return Box{
		Left:   r[0] * vp.Scale,
		Top:    vp.Height - r[3]*vp.Scale,
		Width:  (r[2] - r[0]) * vp.Scale,
		Height: (r[3] - r[1]) * vp.Scale,
	}
}

// Style renders b as inline CSS.
func (b Box) Style() string {
	return fmt.Sprintf("position: absolute; left: %spx; top: %spx; width: %spx; height: %spx;",
		px(b.Left), px(b.Top), px(b.Width), px(b.Height))
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Option is an entry of a select control.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected,omitempty"`
}

// Control is one HTML form control placed over a page.
type Control struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Name     string   `json:"name"`
	Value    string   `json:"value,omitempty"`
	Checked  bool     `json:"checked,omitempty"`
	ReadOnly bool     `json:"readOnly,omitempty"`
	Options  []Option `json:"options,omitempty"`
	Box      Box      `json:"box"`
}

// ControlFor returns the control for a widget, or false when the widget
// has no HTML counterpart (push buttons, signatures, unknown types).
func ControlFor(a extraction.Annotation, vp Viewport) (Control, bool) {
	c := Control{
		ID:       a.ID,
		Name:     a.FieldName,
		ReadOnly: a.ReadOnly,
		Box:      Position(a.Rect, vp),
	}

	switch {
	case a.FieldType == extraction.FieldTypeText:
		c.Kind = KindText
		c.Value = a.FieldValue
	case a.FieldType == extraction.FieldTypeButton && a.CheckBox:
		c.Kind = KindCheckbox
		c.Checked = a.FieldValue == CheckedValue
	case a.FieldType == extraction.FieldTypeButton && a.RadioButton:
		c.Kind = KindRadio
		c.Checked = a.FieldValue == CheckedValue
	case a.FieldType == extraction.FieldTypeChoice:
		c.Kind = KindSelect
		c.Value = a.FieldValue
		c.Options = make([]Option, 0, len(a.Options))
		for _, o := range a.Options {
			c.Options = append(c.Options, Option{
				Value:    o.ExportValue,
				Label:    o.DisplayValue,
				Selected: o.ExportValue == a.FieldValue,
			})
		}
	default:
		return Control{}, false
	}

	return c, true
}

// PageView is one page container: a single canvas plus its controls.
type PageView struct {
	Number   int       `json:"number"`
	CanvasID string    `json:"canvasId"`
	Viewport Viewport  `json:"viewport"`
	Controls []Control `json:"controls"`
}

// Build lays out every page of doc at the given scale, in page order.
func Build(doc *extraction.Document, scale float64) []PageView {
	if doc == nil {
		return nil
	}

	views := make([]PageView, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		vp := NewViewport(p.Width, p.Height, scale)
		view := PageView{
			Number:   p.Number,
			CanvasID: fmt.Sprintf("page-%d-canvas", p.Number),
			Viewport: vp,
			Controls: make([]Control, 0, len(p.Annotations)),
		}
		for _, a := range p.Annotations {
			if c, ok := ControlFor(a, vp); ok {
				view.Controls = append(view.Controls, c)
			}
		}
		views = append(views, view)
	}

	return views
}

// Count returns the number of controls across views.
func Count(views []PageView) int {
	n := 0
	for _, v := range views {
		n += len(v.Controls)
	}
	return n
}
