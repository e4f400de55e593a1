package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/bookrag/internal/db"
)

// hsetChunk bounds how many HSET commands go into one DoMulti pipeline.
const hsetChunk = 256

// HSetMulti stores hashes in pipelined DoMulti batches of at most hsetChunk commands.
// Items without fields are skipped: HSET rejects an empty field list.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	cmds := make([]rueidis.Completed, 0, min(len(items), hsetChunk))
	keys := make([]string, 0, cap(cmds))

	flush := func() error {
		if len(cmds) == 0 {
			return nil
		}
		for i, res := range s.client.DoMulti(ctx, cmds...) {
			if err := res.Error(); err != nil {
				return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", keys[i], err)}
			}
		}
		cmds, keys = cmds[:0], keys[:0]
		return nil
	}

	for _, item := range items {
		if len(item.Fields) == 0 {
			continue
		}
		cmd := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds = append(cmds, cmd.Build())
		keys = append(keys, item.Key)
		if len(cmds) == hsetChunk {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
