package authclient

// Error is a rejection from the auth service. Message preserves the
// service's exact wording because callers classify by substring.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func serviceError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}
