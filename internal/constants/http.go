package constants

const (
	HeaderXTraceID   = "X-Trace-ID"
	HeaderXSessionID = "X-Session-ID"

	APIPrefix = "/api/v1"
)
