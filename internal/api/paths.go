package api

// GJSON paths for extracting values from streamGenerateContent events.
const (
	PathCandText         = "candidates.0.content.parts.#.text"
	PathCandFinishReason = "candidates.0.finishReason"
	PathBlockReason      = "promptFeedback.blockReason"

	// Error envelope returned on non-200 answers and, rarely, inside the stream
	PathErrorMessage = "error.message"
	PathErrorCode    = "error.code"
	PathErrorStatus  = "error.status"
)

// Finish reasons that mean the reply was cut by the provider
var blockingFinishReasons = map[string]bool{
	"SAFETY":             true,
	"RECITATION":         true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
}
