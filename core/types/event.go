package types

type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
