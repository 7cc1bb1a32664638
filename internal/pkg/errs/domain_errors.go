package errs

// Category markers. Concrete errors are marked with one of these so the HTTP layer
// can map them to a status without knowing every sentinel.
var (
	ErrValidation        = New("validation failed")
	ErrNotFound          = New("not found")
	ErrForbidden         = New("forbidden")
	ErrConflict          = New("conflict")
	ErrRemoteUnavailable = New("remote service unavailable")
	ErrPaymentMismatch   = New("payment could not be verified")
)

// Sentinel builds an error already marked with a category.
func Sentinel(msg string, category error) error {
	return Mark(New(msg), category)
}
