package config

// Severity classifies a server stderr line. Classification is advisory
// only; it never affects protocol behavior.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityDebug
	SeverityInfo
	SeverityWarning
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// DiagnosticLine is one classified line of server stderr output.
type DiagnosticLine struct {
	Severity Severity
	Text     string
}
