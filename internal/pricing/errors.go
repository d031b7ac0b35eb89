package pricing

const (
	ReasonMissingParameters       = "Missing required parameters"
	ReasonInvalidDecorationMethod = "Invalid decoration method"
	ReasonInvalidQuantity         = "Invalid quantity"
	ReasonColorCountsNotArray     = "Color counts must be an array"
	ReasonInvalidLocationCount    = "Invalid location count"
	ReasonMalformedBody           = "Malformed request body"
)

// ValidationError is returned before any computation when a request is
// unusable. Retrying the same input always fails the same way.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return "validation failed"
}
