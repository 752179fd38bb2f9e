package types

// Event is a typed record of a state transition, attached to the engine's
// event stream for external observers and indexers.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
