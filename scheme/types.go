package scheme

import "errors"

var (
	ErrNotFound      = errors.New("scheme not found")
	ErrDuplicateName = errors.New("a scheme with this name already exists")
	ErrInvalidScheme = errors.New("invalid scheme")
)

// DefaultName is offered for a scheme created without a name.
const DefaultName = "My color scheme"
