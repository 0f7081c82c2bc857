package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"mcp-zyte-fetch-service/internal/models"
	"mcp-zyte-fetch-service/pkg/zyte"
)

// Tool names exposed over MCP
const (
	ToolFetchFromHTTPResponseBody = "fetch_page_content_from_http_response_body"
	ToolFetchFromBrowserHTML      = "fetch_page_content_from_browser_html"
	ToolFetchFromBrowserHTMLOnly  = "fetch_page_content_from_browser_html_only"
)

// FetchPageContentTool extracts page content for a URL with a fixed extraction mode
type FetchPageContentTool struct {
	name        string
	description string
	mode        models.ExtractFrom
	extractor   zyte.Extractor
}

// NewFetchPageContentTool creates a tool bound to one extraction mode
func NewFetchPageContentTool(name, description string, mode models.ExtractFrom, extractor zyte.Extractor) *FetchPageContentTool {
	return &FetchPageContentTool{
		name:        name,
		description: description,
		mode:        mode,
		extractor:   extractor,
	}
}

// NewFetchPageContentTools returns the three page-content tools
func NewFetchPageContentTools(extractor zyte.Extractor) []Tool {
	return []Tool{
		NewFetchPageContentTool(ToolFetchFromHTTPResponseBody,
			"Extract page content from HTTP response body (fastest, cheapest method).",
			models.ExtractFromHTTPResponseBody, extractor),
		NewFetchPageContentTool(ToolFetchFromBrowserHTML,
			"Extract page content from browser HTML with visual features (default and best quality method).",
			models.ExtractFromBrowserHTML, extractor),
		NewFetchPageContentTool(ToolFetchFromBrowserHTMLOnly,
			"Extract page content from browser HTML only (better for JS-heavy pages).",
			models.ExtractFromBrowserHTMLOnly, extractor),
	}
}

// Name returns the unique identifier for the tool
func (t *FetchPageContentTool) Name() string {
	return t.name
}

// Description returns a human-readable description
func (t *FetchPageContentTool) Description() string {
	return t.description
}

// Mode returns the extraction mode sent to the API
func (t *FetchPageContentTool) Mode() models.ExtractFrom {
	return t.mode
}

// InputSchema returns the JSON schema for tool parameters.
// url is optional and forwarded unvalidated; a missing url is sent as "".
func (t *FetchPageContentTool) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url": {
				Type:        "string",
				Description: "URL of the page to extract content from",
			},
		},
	}
}

// Execute forwards the url to the extraction API and returns the raw response text
func (t *FetchPageContentTool) Execute(ctx context.Context, arguments map[string]interface{}) (interface{}, error) {
	pageURL, _ := arguments["url"].(string)
	return t.extractor.Extract(ctx, pageURL, t.mode)
}
