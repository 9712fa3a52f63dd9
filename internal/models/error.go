package models

// ErrorResponse is rendered by the console for failed requests, as a page
// or as JSON depending on what the client accepts.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
