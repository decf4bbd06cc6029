package cli

const (
	TypeMessage = "message"
	TypeInitial = "initial"
)

// MessageRequest is posted by a CLI client. Text is ignored for initial
// requests.
type MessageRequest struct {
	Type string `json:"type"`
	Text string `json:"text"`
	ID   string `json:"id"`
}

type MessageResponse struct {
	Text string `json:"text"`
	ID   string `json:"id"`
}

type HelloResponse struct {
	ID string `json:"id"`
}
