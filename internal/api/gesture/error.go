package gesture

import "ProjectGesture/pkg/response"

var (
	ErrInvalidGestureType = response.NewError(400, "invalid gesture type")
	ErrInvalidFrame       = response.NewError(400, "malformed gesture frame")
	ErrGestureNotFound    = response.NewError(404, "gesture not found")
	ErrGestureNotOwned    = response.NewError(403, "gesture does not belong to user")
	ErrProcessingFailed   = response.NewError(500, "failed to process gesture")
	ErrSearchUnavailable  = response.NewError(503, "gesture search is unavailable")
)
