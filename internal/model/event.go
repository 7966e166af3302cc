package model

// Event names on the wire, exported as constants so dispatch tables and
// tests never retype a string literal.
const (
	EventScanProgress      = "scan-progress"
	EventCompareDone       = "compare-done"
	EventCompareError      = "compare-error"
	EventDirStatusResolved = "dir-status-resolved"
	EventTerminalOutput    = "terminal-output"
	EventTerminalExit      = "terminal-exit"
	EventDirChanged        = "dir-changed"
)

// Side identifies which pane a scan or terminal event belongs to.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ScanPhase marks whether a scan-progress event is mid-flight or final.
type ScanPhase string

const (
	PhaseScanning ScanPhase = "scanning"
	PhaseDone     ScanPhase = "done"
)

type ScanProgressPayload struct {
	Side           Side      `json:"side"`
	EntriesScanned uint64    `json:"entriesScanned"`
	Phase          ScanPhase `json:"phase"`
}

type CompareDonePayload struct {
	Summary CompareSummary `json:"summary"`
}

type CompareErrorPayload struct {
	Message string `json:"message"`
}

type DirStatusResolvedPayload struct {
	Name      string        `json:"name"`
	Status    CompareStatus `json:"status"`
	LeftPath  string        `json:"leftPath"`
	RightPath string        `json:"rightPath"`
	TotalSize uint64        `json:"totalSize"`
}

type TerminalOutputPayload struct {
	Side Side   `json:"side"`
	Data string `json:"data"`
}

type TerminalExitPayload struct {
	Side Side `json:"side"`
}

type DirChangedPayload struct {
	Path string `json:"path"`
}

// Envelope wraps every event pushed down the websocket connection so a
// single connection can multiplex all event types.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}
