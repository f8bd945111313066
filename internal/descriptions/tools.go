package descriptions

import "sort"

// Tool names exposed over MCP.
const (
	FormFieldsTool       = "pdf_form_fields"
	DocumentInfoTool     = "pdf_document_info"
	ValidateDocumentTool = "pdf_validate_document"
	ServerInfoTool       = "pdf_server_info"
)

const (
	FormFieldsDescription = `List the interactive form controls of the served PDF with their on-screen position.

**When to use:** Need to know which fields the viewer will overlay, their current values, or where they sit on the rendered canvas.

**Output:** One section per page with its canvas size, then one line per control: field name, control kind (text, checkbox, radio, select), value or checked state, and the absolute CSS box (left, top, width, height in px).

**Examples:**
• "Which fields are on page 1 of the form?" → page: 1
• "Where does the signature date field render at 2x zoom?" → scale: 2

**Notes:** Checkboxes and radio buttons report checked only when the field value is "Yes". Pushbutton and signature fields have no control and are not listed.`

	DocumentInfoDescription = `Get page sizes and form field counts of the served PDF.

**When to use:** Quick overview of the document before listing fields: number of pages, page dimensions in points, and how many fields of each type (Tx text, Btn button, Ch choice, Sig signature) it carries.`

	ValidateDocumentDescription = `Check that the configured source URL currently serves a readable PDF.

**When to use:** Diagnosing an "Error fetching PDF" page or an empty viewer. Reports the page count on success and the reason on failure.`

	ServerInfoDescription = `Get server information: name, version, source document, render scale and the list of available tools.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	FormFieldsTool:       FormFieldsDescription,
	DocumentInfoTool:     DocumentInfoDescription,
	ValidateDocumentTool: ValidateDocumentDescription,
	ServerInfoTool:       ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns all tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
