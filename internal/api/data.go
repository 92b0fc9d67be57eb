package api

// Event is an outbound message on the streaming connection.
type Event struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Corrected string `json:"corrected,omitempty"`
	Message   string `json:"message,omitempty"`
}

const (
	TypePartial = "partial"
	TypeFinal   = "final"
	TypeError   = "error"
)

// ProcessRequest is the batch correction request body.
type ProcessRequest struct {
	Text string `json:"text"`
}

// CorrectedTranscript is the result of correcting one finalized utterance
// or one submitted text blob. Immutable after creation.
type CorrectedTranscript struct {
	ID          string             `json:"id,omitempty"`
	Original    string             `json:"original"`
	Corrected   string             `json:"corrected"`
	Highlighted string             `json:"highlighted,omitempty"`
	Scores      map[string]float64 `json:"scores,omitempty"`
}
