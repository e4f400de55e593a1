package mode

// Mode is the retrieval strategy requested for a query.
type Mode string

// Search mode constants.
const (
	Lexical Mode = "lexical"
	Vector  Mode = "vector"
	// Hybrid fuses lexical and vector rankings with RRF.
	Hybrid Mode = "hybrid"
	// Augmented is Hybrid plus cached language-model recommendations.
	Augmented Mode = "augmented"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Lexical || m == Vector || m == Hybrid || m == Augmented
}
