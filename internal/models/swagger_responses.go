package models

// HTTPError represents an HTTP error response
// swagger:model HTTPError
type HTTPError struct {
	// HTTP status code
	Code int `json:"code"`
	// Error message
	Message string `json:"message"`
	// Error class: invalid, not_found, unauthorized, forbidden, conflict, transient
	Kind string `json:"kind,omitempty"`
	// Where the browser should navigate, set on session loss
	Redirect string `json:"redirect,omitempty"`
}
