package models

// DefaultMIMEType is assumed when a request does not declare one.
const DefaultMIMEType = "image/jpeg"

// AnalyzeRequest is the body of POST /api/analyze. Image holds raw base64 or a
// data URL.
type AnalyzeRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mime_type,omitempty"`
}

// DeclaredMIMEType returns the client-declared MIME type or the default.
func (r AnalyzeRequest) DeclaredMIMEType() string {
	if r.MIMEType == "" {
		return DefaultMIMEType
	}
	return r.MIMEType
}

// ErrorResponse is the single-field error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RootResponse is served from GET /.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// HealthResponse is served from GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
