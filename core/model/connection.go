package model

// ConnectionStatus is the lifecycle state of a connection request.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionApproved ConnectionStatus = "approved"
)

// Connection is a directed working relationship from SourceID to TargetID,
// typically driver or greenhouse to sorting center. Suspension only applies
// to drivers and removes them from dispatch without severing the edge.
type Connection struct {
	ID        string           `json:"id"`
	SourceID  string           `json:"sourceId"`
	TargetID  string           `json:"targetId"`
	Status    ConnectionStatus `json:"status"`
	Suspended bool             `json:"suspended"`
}

// Active reports whether the connection currently grants dispatch eligibility.
func (c Connection) Active() bool { return c.Status == ConnectionApproved && !c.Suspended }

// Links reports whether the connection joins the two users in either direction.
func (c Connection) Links(a, b string) bool {
	return (c.SourceID == a && c.TargetID == b) || (c.SourceID == b && c.TargetID == a)
}
