// Package viewer serves the fillable PDF viewer page.
//
// GET / fetches the source document, embeds it as base64 in an HTML page and
// leaves rendering to pdf.js in the browser, which draws every page on a
// canvas and positions form controls over the widget annotations. The same
// layout is available as JSON from GET /api/fields.
package viewer
