package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/schoolbooks/internal/logging"
)

// ImportBatch adds every row of b in order.
//
// A batch missing required columns fails as a whole with a *SchemaError and
// changes nothing. Otherwise each row succeeds or is reported individually;
// there is no rollback. Numeric cells that could not be read are stored as
// zero and listed in the result's Coerced entries.
//
// The whole batch runs under the write lock, so no other mutation
// interleaves with it.
func (s *Service) ImportBatch(ctx context.Context, b Batch) (*ImportResult, error) {
	start := time.Now()
	res := &ImportResult{
		BatchID:     uuid.NewString(),
		FileName:    b.FileName,
		TotalRows:   len(b.Rows),
		InsertedIDs: []int64{},
		Failed:      []RowFailure{},
		Coerced:     []RowCoercion{},
	}

	log := logging.WithFields(ctx, append([]any{"batch_id", res.BatchID, "file", b.FileName}, clientAttrs(ctx)...)...)

	if err := CheckColumns(b.Columns); err != nil {
		log.Warn("import rejected", "error", err)
		return nil, err
	}

	log.Info("import started", "rows", len(b.Rows))

	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if res.Inserted > 0 {
			s.invalidate(ctx)
		}
	}()

	for i, raw := range b.Rows {
		rowNum := i + 1

		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			log.Warn("import interrupted", "row", rowNum, "inserted", res.Inserted, "error", err)
			return res, fmt.Errorf("import interrupted at row %d: %w", rowNum, err)
		}

		in, coerced, err := NormalizeRow(raw)
		if err != nil {
			res.Failed = append(res.Failed, RowFailure{Row: rowNum, Reason: err.Error()})
			continue
		}

		id, err := s.store.Insert(ctx, in)
		if err != nil {
			log.Warn("row insert failed", "row", rowNum, "error", err)
			res.Failed = append(res.Failed, RowFailure{Row: rowNum, Reason: err.Error()})
			continue
		}

		res.Inserted++
		res.InsertedIDs = append(res.InsertedIDs, id)
		if len(coerced) > 0 {
			res.Coerced = append(res.Coerced, RowCoercion{Row: rowNum, Fields: coerced})
			res.CoercedRows++
		}
	}

	res.Duration = time.Since(start)
	log.Info("import finished",
		"inserted", res.Inserted,
		"failed", len(res.Failed),
		"coerced_rows", res.CoercedRows,
		"duration", res.Duration,
	)
	return res, nil
}
