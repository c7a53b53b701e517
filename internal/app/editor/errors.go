package editor

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func unknownField(section, field string) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: "unknown " + section + " field",
		Details: map[string]any{"field": field},
	}
}

func indexOutOfRange(collection string, i, n int) *Error {
	return &Error{
		Status:  404,
		Code:    "NOT_FOUND",
		Message: collection + " index out of range",
		Details: map[string]any{"index": i, "length": n},
	}
}
