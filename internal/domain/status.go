package domain

type StatusKind string

const (
	StatusIdle     StatusKind = ""
	StatusProgress StatusKind = "progress"
	StatusOK       StatusKind = "ok"
	StatusWarning  StatusKind = "warning"
	StatusError    StatusKind = "error"
)

// IsTerminal reports whether the kind ends a controller invocation.
func (k StatusKind) IsTerminal() bool {
	return k == StatusOK || k == StatusWarning || k == StatusError
}

// String representation (for logging)
func (k StatusKind) String() string {
	if k == StatusIdle {
		return "idle"
	}
	return string(k)
}

// Status is the line of text shown under the scan box.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message"`
}

func Progress(msg string) Status { return Status{Kind: StatusProgress, Message: msg} }
func OK(msg string) Status       { return Status{Kind: StatusOK, Message: msg} }
func Warning(msg string) Status  { return Status{Kind: StatusWarning, Message: msg} }
func Failure(msg string) Status  { return Status{Kind: StatusError, Message: msg} }
