package agvd

import "fmt"

// QueryError is a non-2xx HTTP response from the query endpoint.
type QueryError struct {
	Status  int
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed (HTTP %d): %s", e.Status, e.Message)
}

// TransportError is a network-level failure before any HTTP status
// was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("query transport failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// statusMessages maps HTTP status codes to operator-facing messages.
var statusMessages = map[int]string{
	400: "Bad request",
	401: "Unauthorized: check your API key",
	403: "Forbidden: API key lacks access",
	404: "Endpoint not found",
	408: "Request timed out",
	413: "Payload too large: reduce the batch size",
	429: "Too many requests: reduce concurrency",
	500: "Internal server error",
	502: "Bad gateway",
	503: "Service unavailable",
	504: "Gateway timeout",
}

func statusMessage(code int) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return "Unknown error"
}
