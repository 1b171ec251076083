package errs

// Taxonomy codes. 11xx is the realtime gateway range.
const (
	CodeAuthentication = 1101
	CodeNotAuthorized  = 1102
	CodeNotFound       = 1103
	CodeTransientStore = 1104
	CodePayload        = 1105
)

var (
	ErrAuthentication = NewCodeError(CodeAuthentication, "authentication failed")
	ErrNotAuthorized  = NewCodeError(CodeNotAuthorized, "not a member of this chat")
	ErrNotFound       = NewCodeError(CodeNotFound, "not found")
	ErrTransientStore = NewCodeError(CodeTransientStore, "store operation failed")
	ErrPayload        = NewCodeError(CodePayload, "malformed payload")
)
