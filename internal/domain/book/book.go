package book

// Book is the catalog record attached to every ranked item.
type Book struct {
	ID            string
	ISBN          string
	Title         string
	Subtitle      string
	Author        string
	Publisher     string
	PublishedDate string
	Description   string
	Rating        float64 // average rating, 0 when unknown
	ReviewCount   int
	ReviewSummary string
}

// HasRating reports whether rating signals are available for prompting.
func (b *Book) HasRating() bool {
	return b.ReviewCount > 0 && b.Rating > 0
}
