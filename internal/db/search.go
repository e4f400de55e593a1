package db

// KNNQuery is the input for vector similarity search.
// The first Offset hits of the K nearest are skipped, so K should cover Offset+Limit.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Vector       []float32
	K            int
	Offset       int
	Limit        int
	ReturnFields []string
}

// TextQuery is the input for lexical search.
// Text is OR-matched across TextFields; every Tags entry is an exact match ANDed in.
// With neither Text nor Tags the query matches every document.
type TextQuery struct {
	IndexName    string
	Text         string
	TextFields   []string
	Tags         map[string]string
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
