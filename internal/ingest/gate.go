package ingest

// Gate authorizes ingestion commands against the single configured
// operator identity. Commands from anyone else must produce no state
// change and no observable side effect.
type Gate struct {
	operatorID string
}

// NewGate creates a Gate for the configured operator.
func NewGate(operatorID string) *Gate {
	return &Gate{operatorID: operatorID}
}

// Allow reports whether the identity may drive the ingestion workflow.
func (g *Gate) Allow(id string) bool {
	return g.operatorID != "" && id == g.operatorID
}
