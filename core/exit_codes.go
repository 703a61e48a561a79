package core

// Exit codes for the application.
// Signal-based exits follow the Unix 128+signal convention.
const (
	// ExitCodeSuccess indicates a clean run (empty pending queue or completed batch)
	ExitCodeSuccess = 0

	// ExitCodeError indicates a fatal top-level failure
	ExitCodeError = 1

	// ExitCodeSIGINT indicates termination due to SIGINT (128 + 2)
	ExitCodeSIGINT = 130

	// ExitCodeSIGTERM indicates termination due to SIGTERM (128 + 15)
	ExitCodeSIGTERM = 143
)

// ExitCodeName returns a human-readable name for an exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "success"
	case ExitCodeError:
		return "error"
	case ExitCodeSIGINT:
		return "interrupted (SIGINT)"
	case ExitCodeSIGTERM:
		return "terminated (SIGTERM)"
	default:
		return "unknown"
	}
}
