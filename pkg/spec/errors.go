package spec

// ErrorCode categorizes structural errors in the input description.
type ErrorCode string

const (
	MissingReference ErrorCode = "MissingReference"
	InvalidSchema    ErrorCode = "InvalidSchema"
	InvalidNode      ErrorCode = "InvalidNode"
)

// Error is a fatal structural error with an optional JSON pointer to the offending node.
type Error struct {
	Code    ErrorCode
	Message string
	Pointer string
	Cause   error
}

func (e *Error) Error() string {
	if e.Pointer != "" {
		return e.Message + " (at " + e.Pointer + ")"
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }
