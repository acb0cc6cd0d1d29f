// Package sheet reads import batches from spreadsheet files and writes
// enriched rows back out as .xlsx or .csv.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/schoolbooks/internal/core"
)

var (
	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("empty file: no header row found")

	// ErrTooManyRows is returned when a file has more data rows than allowed.
	ErrTooManyRows = errors.New("too many rows")
)

// ReadOptions bounds what a reader accepts. Zero values mean unlimited.
type ReadOptions struct {
	MaxRows int
}

// Read dispatches on the file extension.
func Read(name string, r io.Reader, opts ReadOptions) (core.Batch, error) {
	var (
		b   core.Batch
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx":
		b, err = ReadXLSX(r, opts)
	case ".csv":
		b, err = ReadCSV(r, opts)
	default:
		return core.Batch{}, fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		return core.Batch{}, err
	}
	b.FileName = filepath.Base(name)
	return b, nil
}

// ReadXLSX reads the first worksheet. The first non-empty row is the header.
// Cells are read as raw strings, without number formatting.
func ReadXLSX(r io.Reader, opts ReadOptions) (core.Batch, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return core.Batch{}, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return core.Batch{}, ErrEmptyFile
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return core.Batch{}, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer rows.Close()

	var c collector
	c.maxRows = opts.MaxRows
	for rows.Next() {
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return core.Batch{}, fmt.Errorf("invalid xlsx: %w", err)
		}
		if err := c.add(cells); err != nil {
			return core.Batch{}, err
		}
	}
	if err := rows.Error(); err != nil {
		return core.Batch{}, fmt.Errorf("invalid xlsx: %w", err)
	}
	return c.batch()
}

// ReadCSV reads a comma-separated file. A UTF-8 BOM is skipped and invalid
// UTF-8 bytes are replaced.
func ReadCSV(r io.Reader, opts ReadOptions) (core.Batch, error) {
	cr := csv.NewReader(cleanCSV(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	var c collector
	c.maxRows = opts.MaxRows
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return core.Batch{}, fmt.Errorf("invalid csv: %w", err)
		}
		if err := c.add(record); err != nil {
			return core.Batch{}, err
		}
	}
	return c.batch()
}

// collector turns a stream of cell slices into a Batch.
type collector struct {
	maxRows int
	columns []string
	rows    []map[string]string
}

func (c *collector) add(cells []string) error {
	if blank(cells) {
		return nil
	}
	if c.columns == nil {
		c.columns = make([]string, len(cells))
		for i, h := range cells {
			c.columns[i] = strings.TrimSpace(h)
		}
		return nil
	}

	if c.maxRows > 0 && len(c.rows) >= c.maxRows {
		return fmt.Errorf("%w: limit is %d", ErrTooManyRows, c.maxRows)
	}

	// Every header gets a key, so short rows read as empty cells rather
	// than missing columns.
	row := make(map[string]string, len(c.columns))
	for i, h := range c.columns {
		if h == "" {
			continue
		}
		if _, dup := row[h]; dup {
			continue
		}
		if i < len(cells) {
			row[h] = cells[i]
		} else {
			row[h] = ""
		}
	}
	c.rows = append(c.rows, row)
	return nil
}

func (c *collector) batch() (core.Batch, error) {
	if c.columns == nil {
		return core.Batch{}, ErrEmptyFile
	}
	rows := c.rows
	if rows == nil {
		rows = []map[string]string{}
	}
	return core.Batch{Columns: c.columns, Rows: rows}, nil
}

func blank(cells []string) bool {
	for _, v := range cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
