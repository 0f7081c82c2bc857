package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ExtractFrom selects the source the extraction API derives page content from
type ExtractFrom string

const (
	// ExtractFromHTTPResponseBody uses the raw HTTP response body (fastest, cheapest)
	ExtractFromHTTPResponseBody ExtractFrom = "httpResponseBody"
	// ExtractFromBrowserHTML uses rendered browser HTML with visual features
	ExtractFromBrowserHTML ExtractFrom = "browserHtml"
	// ExtractFromBrowserHTMLOnly uses rendered browser HTML alone
	ExtractFromBrowserHTMLOnly ExtractFrom = "browserHtmlOnly"
)

// Valid reports whether the mode is one the extraction API recognizes
func (e ExtractFrom) Valid() bool {
	switch e {
	case ExtractFromHTTPResponseBody, ExtractFromBrowserHTML, ExtractFromBrowserHTMLOnly:
		return true
	default:
		return false
	}
}

// RequiresBrowser reports whether the mode needs browser-rendered HTML
func (e ExtractFrom) RequiresBrowser() bool {
	return e == ExtractFromBrowserHTML || e == ExtractFromBrowserHTMLOnly
}

// PageContentOptions carries the pageContent extraction settings
type PageContentOptions struct {
	ExtractFrom ExtractFrom `json:"extractFrom"`
}

// ExtractionRequest is the JSON body posted to the extraction endpoint.
// Field order is part of the wire contract.
type ExtractionRequest struct {
	URL                string             `json:"url"`
	PageContent        bool               `json:"pageContent"`
	BrowserHTML        bool               `json:"browserHtml,omitempty"`
	PageContentOptions PageContentOptions `json:"pageContentOptions"`
}

// NewExtractionRequest builds the request body for a url and mode
func NewExtractionRequest(url string, mode ExtractFrom) ExtractionRequest {
	return ExtractionRequest{
		URL:                url,
		PageContent:        true,
		BrowserHTML:        mode.RequiresBrowser(),
		PageContentOptions: PageContentOptions{ExtractFrom: mode},
	}
}

// Encode serializes the request without HTML escaping and without a trailing newline
func (r ExtractionRequest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Error payload types
const (
	ErrorTypeConfig     = "config_error"
	ErrorTypeValidation = "validation_error"
	ErrorTypeTransport  = "transport_error"
	ErrorTypeTimeout    = "timeout_error"
	ErrorTypeSystem     = "system_error"
)

// MissingCredentialMessage is reported when no API key is configured
const MissingCredentialMessage = "ZYTE_API_KEY not configured"

// ErrorPayload is the text result returned for locally detected failures
type ErrorPayload struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

// Text renders the payload as {"error": "...", "type": "..."}
func (p ErrorPayload) Text() string {
	return fmt.Sprintf(`{"error": %s, "type": %s}`, quoteJSON(p.Error), quoteJSON(p.Type))
}

func quoteJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return `""`
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
