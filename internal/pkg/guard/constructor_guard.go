package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the caller passed a
// nil validation error, so a zero-value object still fails with a message.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard distinguishes objects built through their constructor from
// zero values. Commands and value objects embed one; their Validate method
// delegates here, so a struct literal that skipped the constructor (and its
// field validation) is rejected before a handler acts on it.
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard marks the embedding object as properly constructed.
// Call it only from constructors, after their own validation passed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil for a constructed object and validationError for a
// zero value. A nil validationError falls back to ErrDefaultConstructorGuard.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
