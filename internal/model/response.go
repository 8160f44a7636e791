package model

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
// Fields carries per-field validation messages on 422 responses.
type ErrorDetail struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ReceiptResponse is returned once, at request creation. Losing the
// receipt means losing the ability to ever claim the key.
type ReceiptResponse struct {
	Receipt string `json:"receipt"`
}

// ClaimResponse carries the issued key string on a successful claim.
type ClaimResponse struct {
	Key string `json:"key"`
}

// APIMetadata describes the service at the root endpoint.
type APIMetadata struct {
	Name       string `json:"name"`
	APIVersion string `json:"apiVersion"`
}
