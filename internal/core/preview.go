package core

import "time"

// maxPreviewSamples caps the valid rows echoed back by PreviewBatch.
const maxPreviewSamples = 10

// ImportPreview reports what ImportBatch would do with a batch, without
// touching the store.
type ImportPreview struct {
	FileName    string        `json:"file_name,omitempty"`
	TotalRows   int           `json:"total_rows"`
	Valid       int           `json:"valid"`
	Failed      []RowFailure  `json:"failed"`
	Coerced     []RowCoercion `json:"coerced"`
	CoercedRows int           `json:"coerced_rows"`
	Samples     []Row         `json:"samples"`
	Totals      Totals        `json:"totals"`
	Duration    time.Duration `json:"duration_ns"`
}

// PreviewBatch normalizes every row of b and reports failures, coercions and
// the totals the valid rows would add. Samples holds the first valid rows,
// enriched, with zero ids. A batch missing required columns fails with a
// *SchemaError, exactly as ImportBatch would.
func PreviewBatch(b Batch) (*ImportPreview, error) {
	start := time.Now()
	if err := CheckColumns(b.Columns); err != nil {
		return nil, err
	}

	p := &ImportPreview{
		FileName:  b.FileName,
		TotalRows: len(b.Rows),
		Failed:    []RowFailure{},
		Coerced:   []RowCoercion{},
		Samples:   []Row{},
	}

	valid := make([]Book, 0, len(b.Rows))
	for i, raw := range b.Rows {
		rowNum := i + 1

		in, coerced, err := NormalizeRow(raw)
		if err != nil {
			p.Failed = append(p.Failed, RowFailure{Row: rowNum, Reason: err.Error()})
			continue
		}
		if len(coerced) > 0 {
			p.Coerced = append(p.Coerced, RowCoercion{Row: rowNum, Fields: coerced})
			p.CoercedRows++
		}
		valid = append(valid, Book{BookInput: in})
	}

	rows := Enrich(valid)
	p.Valid = len(rows)
	p.Totals = Aggregate(rows)
	if len(rows) > maxPreviewSamples {
		rows = rows[:maxPreviewSamples]
	}
	p.Samples = append(p.Samples, rows...)
	p.Duration = time.Since(start)
	return p, nil
}
