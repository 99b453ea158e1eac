package errors

// Exit codes reported by the refdocs CLI. Distinct codes per category let
// wrapper scripts tell configuration mistakes from environment failures.
const (
	ExitOK         = 0
	ExitGeneric    = 1
	ExitConfig     = 2
	ExitFileSystem = 3
	ExitSchema     = 4
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	ce, ok := AsClassified(err)
	if !ok {
		return ExitGeneric
	}
	switch ce.Category() {
	case CategoryConfig:
		return ExitConfig
	case CategoryFileSystem, CategoryStorage:
		return ExitFileSystem
	case CategorySchema:
		return ExitSchema
	default:
		return ExitGeneric
	}
}

// UserMessage returns the message a CLI user should see, stripped of the
// internal classification markers.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if ce, ok := AsClassified(err); ok {
		if ce.cause != nil {
			return ce.Message() + ": " + ce.cause.Error()
		}
		return ce.Message()
	}
	return err.Error()
}
