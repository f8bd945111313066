// Package pdftest builds small, well-formed PDF documents with AcroForm
// fields for use in tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Widget is one visual instance of a field.
type Widget struct {
	Page    int // 1-based
	Rect    [4]float64
	OnState string // appearance state name for buttons; "" means "Yes"
}

// Field describes an AcroForm field. A field with a single widget is written
// as a merged field/widget dictionary; with several widgets the widgets
// become kids of a non-terminal field.
type Field struct {
	Name    string
	Type    string // Tx, Btn, Ch or Sig
	Flags   int
	Value   string // names for Btn fields, strings otherwise
	Options [][2]string
	MaxLen  int
	Widgets []Widget
}

type page struct {
	width, height float64
}

// Builder accumulates pages and fields.
type Builder struct {
	pages  []page
	fields []Field
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

// AddPage appends a page with a MediaBox of [0 0 width height].
func (b *Builder) AddPage(width, height float64) *Builder {
	b.pages = append(b.pages, page{width: width, height: height})
	return b
}

// AddField appends a form field.
func (b *Builder) AddField(f Field) *Builder {
	b.fields = append(b.fields, f)
	return b
}

// Bytes renders the document.
func (b *Builder) Bytes() []byte {
	w := &writer{}

	// Fixed objects: 1 catalog, 2 page tree, 3 AcroForm, 4 appearance stream.
	const (
		catalogObj    = 1
		pagesObj      = 2
		acroFormObj   = 3
		appearanceObj = 4
	)
	next := 5

	pageObjs := make([]int, len(b.pages))
	contentObjs := make([]int, len(b.pages))
	for i := range b.pages {
		pageObjs[i] = next
		contentObjs[i] = next + 1
		next += 2
	}

	type placedWidget struct {
		obj    int
		parent int // 0 for merged field/widget
		field  int
		widget Widget
	}

	fieldObjs := make([]int, len(b.fields))
	var widgets []placedWidget
	for i, f := range b.fields {
		fieldObjs[i] = next
		next++
		if len(f.Widgets) == 1 {
			widgets = append(widgets, placedWidget{obj: fieldObjs[i], field: i, widget: f.Widgets[0]})
			continue
		}
		for _, wd := range f.Widgets {
			widgets = append(widgets, placedWidget{obj: next, parent: fieldObjs[i], field: i, widget: wd})
			next++
		}
	}

	annots := make([][]int, len(b.pages))
	for _, pw := range widgets {
		idx := pw.widget.Page - 1
		if idx >= 0 && idx < len(annots) {
			annots[idx] = append(annots[idx], pw.obj)
		}
	}

	w.header()

	w.object(catalogObj, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R /AcroForm %d 0 R >>", pagesObj, acroFormObj))
	w.object(pagesObj, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", refs(pageObjs), len(pageObjs)))
	w.object(acroFormObj, fmt.Sprintf("<< /Fields [%s] /NeedAppearances true >>", refs(fieldObjs)))
	w.stream(appearanceObj, "<< /Type /XObject /Subtype /Form /BBox [0 0 10 10]", "")

	for i, p := range b.pages {
		dict := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %s %s] /Contents %d 0 R",
			pagesObj, num(p.width), num(p.height), contentObjs[i])
		if len(annots[i]) > 0 {
			dict += fmt.Sprintf(" /Annots [%s]", refs(annots[i]))
		}
		w.object(pageObjs[i], dict+" >>")
		w.stream(contentObjs[i], "<<", fmt.Sprintf("0 0 m %s %s l S", num(p.width), num(p.height)))
	}

	for i, f := range b.fields {
		fieldDict := fieldEntries(f)
		if len(f.Widgets) == 1 {
			wd := f.Widgets[0]
			w.object(fieldObjs[i], "<< "+fieldDict+" "+widgetEntries(f, wd, pageObjs, appearanceObj)+" >>")
			continue
		}

		var kids []int
		for _, pw := range widgets {
			if pw.field == i {
				kids = append(kids, pw.obj)
			}
		}
		w.object(fieldObjs[i], fmt.Sprintf("<< %s /Kids [%s] >>", fieldDict, refs(kids)))
		for _, pw := range widgets {
			if pw.field != i {
				continue
			}
			w.object(pw.obj, fmt.Sprintf("<< /Parent %d 0 R %s >>", pw.parent, widgetEntries(f, pw.widget, pageObjs, appearanceObj)))
		}
	}

	return w.finish(catalogObj, next)
}

func fieldEntries(f Field) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "/FT /%s /T %s", f.Type, literal(f.Name))
	if f.Flags != 0 {
		fmt.Fprintf(&sb, " /Ff %d", f.Flags)
	}
	if f.Value != "" {
		if f.Type == "Btn" {
			fmt.Fprintf(&sb, " /V /%s", f.Value)
		} else {
			fmt.Fprintf(&sb, " /V %s", literal(f.Value))
		}
	}
	if f.MaxLen > 0 {
		fmt.Fprintf(&sb, " /MaxLen %d", f.MaxLen)
	}
	if len(f.Options) > 0 {
		sb.WriteString(" /Opt [")
		for i, o := range f.Options {
			if i > 0 {
				sb.WriteByte(' ')
			}
			if o[0] == o[1] {
				sb.WriteString(literal(o[0]))
			} else {
				fmt.Fprintf(&sb, "[%s %s]", literal(o[0]), literal(o[1]))
			}
		}
		sb.WriteString("]")
	}
	return sb.String()
}

func widgetEntries(f Field, wd Widget, pageObjs []int, appearanceObj int) string {
	s := fmt.Sprintf("/Type /Annot /Subtype /Widget /Rect [%s %s %s %s]",
		num(wd.Rect[0]), num(wd.Rect[1]), num(wd.Rect[2]), num(wd.Rect[3]))
	if idx := wd.Page - 1; idx >= 0 && idx < len(pageObjs) {
		s += fmt.Sprintf(" /P %d 0 R", pageObjs[idx])
	}
	if f.Type == "Btn" {
		on := wd.OnState
		if on == "" {
			on = "Yes"
		}
		s += fmt.Sprintf(" /AP << /N << /%s %d 0 R /Off %d 0 R >> >>", on, appearanceObj, appearanceObj)
	}
	return s
}

func refs(objs []int) string {
	parts := make([]string, len(objs))
	for i, o := range objs {
		parts[i] = fmt.Sprintf("%d 0 R", o)
	}
	return strings.Join(parts, " ")
}

func num(f float64) string {
	return fmt.Sprintf("%g", f)
}

func literal(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(s) + ")"
}

// writer tracks object offsets for the cross-reference table.
type writer struct {
	buf     bytes.Buffer
	offsets map[int]int
}

func (w *writer) header() {
	w.offsets = make(map[int]int)
	w.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
}

func (w *writer) object(n int, body string) {
	w.offsets[n] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", n, body)
}

// stream writes a stream object; dictPrefix is an unterminated dictionary.
func (w *writer) stream(n int, dictPrefix, data string) {
	w.offsets[n] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s /Length %d >>\nstream\n%s\nendstream\nendobj\n", n, dictPrefix, len(data), data)
}

func (w *writer) finish(root, size int) []byte {
	xref := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", size)
	w.buf.WriteString("0000000000 65535 f \n")
	for n := 1; n < size; n++ {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", w.offsets[n])
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, root, xref)
	return w.buf.Bytes()
}
