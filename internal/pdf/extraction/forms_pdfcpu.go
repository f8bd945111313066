package extraction

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/pdf-form-viewer/internal/logging"
)

// maxParentDepth bounds /Parent traversal on malformed field trees.
const maxParentDepth = 32

// Extractor extracts pages and widget annotations using pdfcpu.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new extractor. A nil logger discards output.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Extractor{logger: logger}
}

// Extract reads the document from r and returns its pages and widgets.
func (e *Extractor) Extract(r io.ReadSeeker) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(r, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}

	doc := &Document{Pages: make([]Page, 0, ctx.PageCount)}
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		page := Page{Number: pageNr}
		if pageNr-1 < len(dims) {
			page.Width = dims[pageNr-1].Width
			page.Height = dims[pageNr-1].Height
		}

		pageDict, _, _, err := ctx.PageDict(pageNr, false)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", pageNr, err)
		}

		page.Annotations = e.pageWidgets(ctx, pageDict, pageNr)
		doc.Pages = append(doc.Pages, page)
	}

	e.logger.Debug("extracted document",
		"pages", len(doc.Pages),
		"widgets", len(doc.Annotations()),
	)

	return doc, nil
}

// pageWidgets returns the widget annotations of one page in /Annots order.
func (e *Extractor) pageWidgets(ctx *model.Context, pageDict types.Dict, pageNr int) []Annotation {
	widgets := make([]Annotation, 0)
	if pageDict == nil {
		return widgets
	}

	annotsObj, found := pageDict.Find("Annots")
	if !found {
		return widgets
	}

	annots, err := ctx.DereferenceArray(annotsObj)
	if err != nil {
		e.logger.Debug("unreadable annotation array", "page", pageNr, "error", err)
		return widgets
	}

	for i, obj := range annots {
		annotDict, err := ctx.DereferenceDict(obj)
		if err != nil || annotDict == nil {
			continue
		}

		if subtype := annotDict.NameEntry("Subtype"); subtype == nil || *subtype != "Widget" {
			continue
		}

		widget, ok := e.widget(ctx, annotDict)
		if !ok {
			e.logger.Debug("skipping widget without field type", "page", pageNr, "index", i)
			continue
		}
		widget.ID = annotationID(obj, pageNr, i)
		widget.Page = pageNr
		widgets = append(widgets, widget)
	}

	return widgets
}

// widget resolves the field properties of a widget annotation.
func (e *Extractor) widget(ctx *model.Context, d types.Dict) (Annotation, bool) {
	var a Annotation

	ftObj, found := inherited(ctx, d, "FT")
	if !found {
		return a, false
	}
	ft, err := ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return a, false
	}
	a.FieldType = FieldType(ft)
	a.FieldName = qualifiedName(ctx, d)

	var flags int
	if ffObj, found := inherited(ctx, d, "Ff"); found {
		if ff, err := ctx.DereferenceInteger(ffObj); err == nil && ff != nil {
			flags = int(*ff)
		}
	}
	a.ReadOnly = flags&FlagReadOnly != 0
	a.Required = flags&FlagRequired != 0

	switch a.FieldType {
	case FieldTypeButton:
		a.RadioButton = flags&FlagRadio != 0 && flags&FlagPushbutton == 0
		a.PushButton = flags&FlagPushbutton != 0
		a.CheckBox = !a.RadioButton && !a.PushButton
		a.ExportValue = exportValue(ctx, d)
	case FieldTypeChoice:
		a.Combo = flags&FlagCombo != 0
		a.MultiSelect = flags&FlagMultiSelect != 0
		a.Options = options(ctx, d)
	case FieldTypeText:
		a.Multiline = flags&FlagMultiline != 0
		if mlObj, found := inherited(ctx, d, "MaxLen"); found {
			if ml, err := ctx.DereferenceInteger(mlObj); err == nil && ml != nil {
				a.MaxLen = int(*ml)
			}
		}
	}

	if vObj, found := inherited(ctx, d, "V"); found {
		a.FieldValue = valueString(ctx, vObj)
	}

	if rectObj, found := d.Find("Rect"); found {
		a.Rect = rect(ctx, rectObj)
	}

	return a, true
}

// inherited looks key up on d and then on its ancestors.
func inherited(ctx *model.Context, d types.Dict, key string) (types.Object, bool) {
	for depth := 0; d != nil && depth < maxParentDepth; depth++ {
		if obj, found := d.Find(key); found {
			return obj, true
		}
		parentObj, found := d.Find("Parent")
		if !found {
			break
		}
		parent, err := ctx.DereferenceDict(parentObj)
		if err != nil {
			break
		}
		d = parent
	}
	return nil, false
}

// qualifiedName joins the partial names of d and its ancestors with dots.
func qualifiedName(ctx *model.Context, d types.Dict) string {
	var parts []string
	for depth := 0; d != nil && depth < maxParentDepth; depth++ {
		if tObj, found := d.Find("T"); found {
			if t, err := ctx.DereferenceStringOrHexLiteral(tObj, model.V10, nil); err == nil && t != "" {
				parts = append(parts, t)
			}
		}
		parentObj, found := d.Find("Parent")
		if !found {
			break
		}
		parent, err := ctx.DereferenceDict(parentObj)
		if err != nil {
			break
		}
		d = parent
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// valueString renders a field value (V) as a string. Names are returned
// without the leading slash; for multi-select arrays the first entry wins.
func valueString(ctx *model.Context, obj types.Object) string {
	o, err := ctx.Dereference(obj)
	if err != nil || o == nil {
		return ""
	}

	switch v := o.(type) {
	case types.Name:
		return string(v)
	case types.StringLiteral, types.HexLiteral:
		if s, err := ctx.DereferenceStringOrHexLiteral(v, model.V10, nil); err == nil {
			return s
		}
	case types.Array:
		if len(v) > 0 {
			return valueString(ctx, v[0])
		}
	}
	return ""
}

// options reads the Opt array of a choice field. Entries are either a
// string or an [export, display] pair.
func options(ctx *model.Context, d types.Dict) []Option {
	var opts []Option

	optObj, found := inherited(ctx, d, "Opt")
	if !found {
		return opts
	}

	arr, err := ctx.DereferenceArray(optObj)
	if err != nil {
		return opts
	}

	for _, item := range arr {
		if pair, err := ctx.DereferenceArray(item); err == nil && len(pair) >= 2 {
			export, err1 := ctx.DereferenceStringOrHexLiteral(pair[0], model.V10, nil)
			display, err2 := ctx.DereferenceStringOrHexLiteral(pair[1], model.V10, nil)
			if err1 == nil && err2 == nil {
				opts = append(opts, Option{ExportValue: export, DisplayValue: display})
			}
			continue
		}
		if s, err := ctx.DereferenceStringOrHexLiteral(item, model.V10, nil); err == nil {
			opts = append(opts, Option{ExportValue: s, DisplayValue: s})
		}
	}

	return opts
}

// exportValue returns the "on" appearance state of a button widget.
func exportValue(ctx *model.Context, d types.Dict) string {
	apObj, found := d.Find("AP")
	if !found {
		return ""
	}
	ap, err := ctx.DereferenceDict(apObj)
	if err != nil || ap == nil {
		return ""
	}
	nObj, found := ap.Find("N")
	if !found {
		return ""
	}
	n, err := ctx.DereferenceDict(nObj)
	if err != nil || n == nil {
		return ""
	}
	return onState(n)
}

// onState returns the first appearance state other than Off in sorted
// order, so widgets with several on-states resolve deterministically.
func onState(states types.Dict) string {
	names := make([]string, 0, len(states))
	for state := range states {
		if state != "Off" {
			names = append(names, state)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

// rect parses and normalises a Rect array. Malformed rectangles yield zeros.
func rect(ctx *model.Context, obj types.Object) Rect {
	var r Rect

	arr, err := ctx.DereferenceArray(obj)
	if err != nil || len(arr) != 4 {
		return r
	}

	for i, coord := range arr {
		if f, err := ctx.DereferenceNumber(coord); err == nil {
			r[i] = f
		}
	}

	return NormalizeRect(r)
}

// annotationID mirrors the "<num>R" ids PDF viewers assign to annotations.
// Direct (inline) annotations get a synthetic id.
func annotationID(obj types.Object, pageNr, index int) string {
	if ir, ok := obj.(types.IndirectRef); ok {
		if ir.GenerationNumber == 0 {
			return fmt.Sprintf("%dR", ir.ObjectNumber)
		}
		return fmt.Sprintf("%dR%d", ir.ObjectNumber, ir.GenerationNumber)
	}
	return fmt.Sprintf("p%d-a%d", pageNr, index)
}
