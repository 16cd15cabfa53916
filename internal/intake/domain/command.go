package domain

// CommandKind identifies a stage-independent command.
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandStatus
	CommandHistory
	CommandCancel
)

// Command is derived from an inbound message; it is never stored.
type Command struct {
	Kind CommandKind
	// ComplaintID is the optional record-ID prefix for status lookups.
	ComplaintID string
}

func (k CommandKind) String() string {
	switch k {
	case CommandStatus:
		return "status"
	case CommandHistory:
		return "history"
	case CommandCancel:
		return "cancel"
	default:
		return "none"
	}
}
