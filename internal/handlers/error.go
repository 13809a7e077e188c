package handlers

// ErrorResponse is the standard API error body (message only).
type ErrorResponse struct {
	Message string `json:"message"`
}

// ExchangeErrorResponse is the error body for the token exchange endpoint.
// Details carries optional diagnostic detail, never a stack trace as the
// primary message.
type ExchangeErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
