package recommend

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/kailas-cloud/bookrag/internal/domain"
	"github.com/kailas-cloud/bookrag/internal/domain/recommendation"
)

// rawRecommendation is one element of the model's JSON array.
type rawRecommendation struct {
	ID        flexibleID `json:"id"`
	Relevance float64    `json:"relevance"`
	Rationale string     `json:"rationale"`
}

// flexibleID accepts both "42" and 42; models are inconsistent about quoting ids.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexibleID(n.String())
	return nil
}

// parseResponse decodes the model output into recommendations without provenance.
func parseResponse(text string) ([]recommendation.Recommendation, error) {
	body := stripCodeFences(text)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", domain.ErrRecommendationParse)
	}

	var raw []rawRecommendation
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRecommendationParse, err)
	}

	out := make([]recommendation.Recommendation, 0, len(raw))
	for _, r := range raw {
		if r.ID == "" {
			continue
		}
		out = append(out, recommendation.Recommendation{
			ID:        string(r.ID),
			Relevance: clampRelevance(r.Relevance),
			Rationale: strings.TrimSpace(r.Rationale),
		})
	}
	return out, nil
}

// stripCodeFences removes Markdown fence markers such as ```json and ```, inline or on their own lines.
func stripCodeFences(text string) string {
	return strings.TrimSpace(fenceReplacer.Replace(text))
}

var fenceReplacer = strings.NewReplacer("```json", "", "```JSON", "", "```", "")

func clampRelevance(v float64) int {
	switch {
	case v < recommendation.MinRelevance:
		return recommendation.MinRelevance
	case v > recommendation.MaxRelevance:
		return recommendation.MaxRelevance
	default:
		return int(v + 0.5)
	}
}

