package models

// ErrorResponse is the JSON error envelope for the HTTP API.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
