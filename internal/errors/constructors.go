package errors

// Convenience constructors for the common classifications.

// NewConfigError creates a fatal configuration error.
func NewConfigError(message string) *ClassifiedError {
	return New(CategoryConfig, SeverityFatal, message)
}

// WrapConfigError wraps a cause as a fatal configuration error.
func WrapConfigError(err error, message string) *ClassifiedError {
	return Wrap(err, CategoryConfig, SeverityFatal, message)
}

// NewSchemaError creates a schema violation error. Fatal for the affected
// branch, not necessarily for the run.
func NewSchemaError(message string) *ClassifiedError {
	return New(CategorySchema, SeverityError, message)
}

// NewResolutionWarning creates a non-fatal metadata resolution warning.
func NewResolutionWarning(message string) *ClassifiedError {
	return New(CategoryMetadata, SeverityWarning, message)
}

// WrapFileSystemError wraps a cause as a filesystem error. Callers decide
// whether the failing path makes the whole run fatal.
func WrapFileSystemError(err error, message string) *ClassifiedError {
	return Wrap(err, CategoryFileSystem, SeverityError, message)
}

// WrapFatalFileSystemError wraps a cause as a run-fatal filesystem error
// (e.g. the output root itself cannot be written).
func WrapFatalFileSystemError(err error, message string) *ClassifiedError {
	return Wrap(err, CategoryFileSystem, SeverityFatal, message)
}

// WrapStorageError wraps a cause as an archive store error.
func WrapStorageError(err error, message string) *ClassifiedError {
	return Wrap(err, CategoryStorage, SeverityError, message)
}
