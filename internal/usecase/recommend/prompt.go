package recommend

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/bookrag/internal/domain/recommendation"
)

// Excerpt limits, in runes.
const (
	DefaultDescriptionChars = 600
	reviewSummaryChars      = 300
)

const instructions = `You are a librarian recommending books for a reader's search.
Judge every candidate book above against the search query and score its relevance.

Scoring rubric (relevance, integer 0-100):
- 90-100: directly answers the query; the reader is almost certainly looking for this book.
- 70-89: strongly related by topic, author or genre.
- 40-69: partially related; useful only as a secondary suggestion.
- 0-39: weakly related or unrelated.

Rating and review rules:
- A rating of 4.0 or higher with at least 50 reviews may raise relevance by up to 10 points.
- A rating below 3.0 with at least 20 reviews should lower relevance by up to 10 points.
- Few reviews (under 10) must not change relevance.
- Never let rating signals move a book across more than one rubric band.
- Mention rating signals in the rationale only when they changed the score.

Output contract:
- Respond with a JSON array only. No prose before or after it.
- Each element: {"id": "<candidate id>", "relevance": <integer 0-100>, "rationale": "<one or two sentences>"}
- Use only ids from the candidate list. Include every candidate at most once.
- Order elements by descending relevance.`

// buildPrompt renders candidates (already ordered best first) and the fixed instruction block.
func buildPrompt(queryText string, candidates []recommendation.Candidate, descChars int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Search query: %q\n\n", queryText)
	b.WriteString("Candidate books (best retrieval match first):\n")

	for i := range candidates {
		c := &candidates[i]
		fmt.Fprintf(&b, "\n[%d]\n", i+1)
		fmt.Fprintf(&b, "id: %s\n", c.ID)
		fmt.Fprintf(&b, "title: %s\n", c.Title)
		if c.Author != "" {
			fmt.Fprintf(&b, "author: %s\n", c.Author)
		}
		if c.ReviewCount > 0 {
			fmt.Fprintf(&b, "rating: %.1f/5 from %d reviews\n", c.Rating, c.ReviewCount)
		}
		if c.ReviewSummary != "" {
			fmt.Fprintf(&b, "review summary: %s\n", excerpt(c.ReviewSummary, reviewSummaryChars))
		}
		if c.PublishedDate != "" {
			fmt.Fprintf(&b, "published: %s\n", c.PublishedDate)
		}
		if c.Description != "" {
			fmt.Fprintf(&b, "content: %s\n", excerpt(c.Description, descChars))
		}
	}

	b.WriteString("\n")
	b.WriteString(instructions)
	return b.String()
}

// excerpt trims s to at most n runes on a whitespace boundary when possible.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)[:n]
	cut := string(r)
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return cut + "..."
}
