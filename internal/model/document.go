package model

type WitnessState int

const (
	WitnessStateNone      WitnessState = 0
	WitnessStateRequested WitnessState = 1
	WitnessStateCompleted WitnessState = 2
	WitnessStateFailed    WitnessState = 3
)

func (s WitnessState) String() string {
	switch s {
	case WitnessStateRequested:
		return "requested"
	case WitnessStateCompleted:
		return "completed"
	case WitnessStateFailed:
		return "failed"
	default:
		return "none"
	}
}

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusExecuted DocumentStatus = "executed"
)

type Document struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Content        string          `json:"content"`
	Size           int64           `json:"size"`
	Type           string          `json:"type"`
	Owner          string          `json:"owner"`
	Collaborators  []string        `json:"collaborators"`
	Signatures     map[string]bool `json:"signatures"`
	Status         DocumentStatus  `json:"status"`
	WitnessState   WitnessState    `json:"-"`
	WitnessStatus  string          `json:"witnessState"`
	WitnessPayload string          `json:"witnessPayload,omitempty"`
	Ctime          int64           `json:"createdAt"`
	Mtime          int64           `json:"updatedAt"`
}

// DocumentSummary is the list view of a document, without content.
type DocumentSummary struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Size   int64          `json:"size"`
	Type   string         `json:"type"`
	Owner  string         `json:"owner"`
	Status DocumentStatus `json:"status"`
	Mtime  int64          `json:"updatedAt"`
}
