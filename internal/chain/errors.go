package chain

import "errors"

// Errors shared by the SourceModel implementations.
var (
	ErrMethodNotFound      = errors.New("method not found")
	ErrAmbiguousMethod     = errors.New("method reference is ambiguous")
	ErrNoPackages          = errors.New("no source packages found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)
