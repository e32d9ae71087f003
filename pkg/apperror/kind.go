package apperror

type Kind string

var (
	// --- Input ---
	InvalidInput Kind = "invalid_input"
	NotFound     Kind = "not_found"
	Conflict     Kind = "conflict"

	// --- Infrastructure ---
	RequestTimeout Kind = "request_timeout"
	Dependency     Kind = "dependency_failure"
	DatabaseErr    Kind = "database_error"
	Internal       Kind = "internal"
)
