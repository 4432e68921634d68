package enable

// EventType is the kind of controller event.
type EventType int

const (
	// EventActivated is emitted when features are applied to a document.
	EventActivated EventType = iota
	// EventDeactivated is emitted when a document's features are reverted.
	EventDeactivated
	// EventInstallStarted is emitted when an installation is dispatched.
	EventInstallStarted
	// EventInstallSucceeded is emitted when an installation resolves.
	EventInstallSucceeded
	// EventInstallFailed is emitted when an installation fails; the
	// filetype is unavailable for the rest of the process.
	EventInstallFailed
	// EventInstallerMissing is emitted at most once, when auto-install is
	// requested but no installer service exists.
	EventInstallerMissing
	// EventUnknownCommand is emitted when Dispatch receives unknown input.
	EventUnknownCommand
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventActivated:
		return "activated"
	case EventDeactivated:
		return "deactivated"
	case EventInstallStarted:
		return "install-started"
	case EventInstallSucceeded:
		return "install-succeeded"
	case EventInstallFailed:
		return "install-failed"
	case EventInstallerMissing:
		return "installer-missing"
	case EventUnknownCommand:
		return "unknown-command"
	default:
		return "unknown"
	}
}

// Event is a controller notification. The embedding host decides how to
// present it; nothing here logs or prints.
type Event struct {
	Type     EventType
	Document string
	Language string
	Filetype string
	Err      error
}

// Handler receives controller events. Handlers must not call back into the
// controller; panics are recovered.
type Handler func(event Event)
