// Package extraction reads page geometry and form widgets from PDF documents.
//
// Form fields live in a tree rooted at the AcroForm dictionary, while their
// visual representation is a widget annotation listed in a page's /Annots
// array. A widget may be merged with its field dictionary or be a kid of it;
// FT, Ff, V, Opt and the partial name T are inheritable, so every lookup
// walks the /Parent chain. Extraction starts from the pages so that each
// widget carries the page it is drawn on, which is what an overlay needs.
//
// Button fields are classified by their flags: bit 16 marks radio buttons,
// bit 17 push buttons, and anything else is a checkbox.
package extraction
