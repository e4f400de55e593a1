// Package catalog imports book records into the catalog index.
package catalog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrag/internal/domain"
	dombook "github.com/kailas-cloud/bookrag/internal/domain/book"
	bookrepo "github.com/kailas-cloud/bookrag/internal/repository/book"
)

// DefaultBatchSize is the number of books written per pipelined save.
const DefaultBatchSize = 100

// maxLineBytes bounds one JSON line; long descriptions fit comfortably.
const maxLineBytes = 1 << 20

// Report summarizes one import.
type Report struct {
	Imported int
	// Unembedded books were saved without a vector and are reachable by lexical search only.
	Unembedded int
	Skipped    int
}

// Service imports books from JSON lines, embedding each description.
type Service struct {
	saver     Saver
	embed     domain.Embedder
	batchSize int
	logger    *zap.Logger
}

// New creates a catalog import service. embed should not add a query instruction.
func New(saver Saver, embed domain.Embedder, logger *zap.Logger) *Service {
	return &Service{saver: saver, embed: embed, batchSize: DefaultBatchSize, logger: logger.Named("catalog")}
}

// WithBatchSize configures the save batch size.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// ImportFile imports the JSON lines file at path.
func (s *Service) ImportFile(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return Report{}, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return s.Import(ctx, f)
}

// Import reads one book per line and saves them in batches.
// Malformed lines and books without an id are skipped. A failed embedding stores the book
// without a vector, except a spent token budget, which stops the import after saving what was read.
func (s *Service) Import(ctx context.Context, r io.Reader) (Report, error) {
	var rep Report
	batch := make([]bookrepo.Indexed, 0, s.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.saver.Save(ctx, batch); err != nil {
			return fmt.Errorf("save batch: %w", err)
		}
		rep.Imported += len(batch)
		batch = batch[:0]
		return nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		var d bookDTO
		if err := json.Unmarshal([]byte(raw), &d); err != nil || strings.TrimSpace(d.ID) == "" {
			rep.Skipped++
			s.logger.Warn("Skipping catalog line", zap.Int("line", line), zap.Error(err))
			continue
		}
		b := d.toBook()

		vec, err := s.vectorize(ctx, &b)
		if errors.Is(err, domain.ErrTokenBudgetExceeded) || ctx.Err() != nil {
			if ferr := flush(); ferr != nil {
				return rep, ferr
			}
			return rep, fmt.Errorf("import stopped at line %d: %w", line, err)
		}
		if err != nil {
			rep.Unembedded++
			s.logger.Warn("Storing book without embedding", zap.String("id", b.ID), zap.Error(err))
		}

		batch = append(batch, bookrepo.Indexed{Book: b, Embedding: vec})
		if len(batch) == s.batchSize {
			if err := flush(); err != nil {
				return rep, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return rep, fmt.Errorf("read catalog: %w", err)
	}
	if err := flush(); err != nil {
		return rep, err
	}

	s.logger.Info("Catalog imported",
		zap.Int("imported", rep.Imported),
		zap.Int("unembedded", rep.Unembedded),
		zap.Int("skipped", rep.Skipped),
	)
	return rep, nil
}

// vectorize embeds the description, falling back to the title for books without one.
func (s *Service) vectorize(ctx context.Context, b *dombook.Book) ([]float32, error) {
	text := b.Description
	if strings.TrimSpace(text) == "" {
		text = b.Title
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", b.ID, err)
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(res.TotalTokens)
	return res.Embedding, nil
}

type bookDTO struct {
	ID            string  `json:"id"`
	ISBN          string  `json:"isbn"`
	Title         string  `json:"title"`
	Subtitle      string  `json:"subtitle"`
	Author        string  `json:"author"`
	Publisher     string  `json:"publisher"`
	PublishedDate string  `json:"published_date"`
	Description   string  `json:"description"`
	Rating        float64 `json:"rating"`
	ReviewCount   int     `json:"review_count"`
	ReviewSummary string  `json:"review_summary"`
}

func (d *bookDTO) toBook() dombook.Book {
	return dombook.Book{
		ID:            strings.TrimSpace(d.ID),
		ISBN:          d.ISBN,
		Title:         d.Title,
		Subtitle:      d.Subtitle,
		Author:        d.Author,
		Publisher:     d.Publisher,
		PublishedDate: d.PublishedDate,
		Description:   d.Description,
		Rating:        d.Rating,
		ReviewCount:   d.ReviewCount,
		ReviewSummary: d.ReviewSummary,
	}
}
