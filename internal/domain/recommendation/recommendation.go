package recommendation

// Candidate is a retrieved book proposed to the language model.
type Candidate struct {
	ID            string
	Title         string
	Author        string
	PublishedDate string
	Description   string
	Rating        float64
	ReviewCount   int
	ReviewSummary string
	FusedScore    float64
	Similarity    *float64
}

// Recommendation is the language model's verdict on one candidate,
// enriched with the candidate's retrieval provenance.
type Recommendation struct {
	ID         string   `json:"id"`
	Relevance  int      `json:"relevance"`
	Rationale  string   `json:"rationale"`
	Similarity *float64 `json:"similarity,omitempty"`
	FusedScore float64  `json:"fused_score"`
}

// Relevance bounds.
const (
	MinRelevance = 0
	MaxRelevance = 100
)
