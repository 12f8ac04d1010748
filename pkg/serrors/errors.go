package serrors

import "fmt"

// BaseError is a business error with a stable machine-readable code.
// Controllers match on the error value with errors.Is and put the code
// on the wire; the message is for humans.
type BaseError struct {
	Code    string
	Message string
}

func NewError(code, message string) *BaseError {
	return &BaseError{Code: code, Message: message}
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithMessage returns a copy carrying a more specific message.
// The copy still matches the original with errors.Is.
func (e *BaseError) WithMessage(format string, args ...any) *BaseError {
	return &BaseError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

func (e *BaseError) Is(target error) bool {
	other, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}
