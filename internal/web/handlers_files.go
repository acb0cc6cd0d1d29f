package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/schoolbooks/internal/core"
	"github.com/JonMunkholm/schoolbooks/internal/logging"
	"github.com/JonMunkholm/schoolbooks/internal/sheet"
)

// handleImport adds every row of an uploaded .xlsx or .csv file.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	s.withUpload(w, r, func(ctx context.Context, batch core.Batch) {
		res, err := s.service.ImportBatch(ctx, batch)
		if err != nil {
			if res != nil {
				logging.FromContext(ctx).Warn("partial import",
					"batch_id", res.BatchID,
					"inserted", res.Inserted,
					"total_rows", res.TotalRows,
				)
			}
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

// handlePreviewImport reports what an import of the uploaded file would do
// without storing anything.
func (s *Server) handlePreviewImport(w http.ResponseWriter, r *http.Request) {
	s.withUpload(w, r, func(_ context.Context, batch core.Batch) {
		p, err := core.PreviewBatch(batch)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	})
}

// withUpload reads the multipart field "file" as a batch and passes it to fn.
// Parsing and fn run inside an import limiter slot and under UPLOAD_TIMEOUT.
// Every failure before fn is answered here.
func (s *Server) withUpload(w http.ResponseWriter, r *http.Request, fn func(context.Context, core.Batch)) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		if isBodyTooLarge(err) {
			respondErrorStatus(w, r, fmt.Errorf("file too large: limit is %d bytes", maxSize), http.StatusRequestEntityTooLarge)
			return
		}
		respondErrorStatus(w, r, fmt.Errorf("no file provided: %w", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if err := s.imports.Acquire(r.Context()); err != nil {
		if errors.Is(err, core.ErrTooManyImports) {
			w.Header().Set("Retry-After", "5")
		}
		respondError(w, r, err)
		return
	}
	defer s.imports.Release()

	ctx := r.Context()
	if s.cfg.Upload.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Upload.Timeout)
		defer cancel()
	}

	batch, err := sheet.Read(header.Filename, file, sheet.ReadOptions{MaxRows: s.cfg.Upload.MaxRows})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, sheet.ErrTooManyRows) {
			status = http.StatusRequestEntityTooLarge
		}
		respondErrorStatus(w, r, err, status)
		return
	}

	fn(ctx, batch)
}

// isBodyTooLarge reports whether err came from MaxBytesReader. Multipart
// parsing does not always wrap it, so the message is checked too.
func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

// handleExport downloads the books matching the query string criteria as
// .xlsx (default) or .csv.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c, err := parseCriteria(q)
	if err != nil {
		respondError(w, r, err)
		return
	}

	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "csv" {
		respondError(w, r, &core.ValidationError{Field: "format", Value: format, Message: "must be xlsx or csv"})
		return
	}

	res, err := s.service.QueryBooks(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	contentType := sheet.ContentTypeXLSX
	if format == "csv" {
		contentType = sheet.ContentTypeCSV
		err = sheet.WriteCSV(&buf, res.Rows)
	} else {
		err = sheet.WriteXLSX(&buf, res.Rows)
	}
	if err != nil {
		respondError(w, r, fmt.Errorf("export: %w", err))
		return
	}

	name := fmt.Sprintf("books-%s.%s", time.Now().Format("20060102"), format)
	sendFile(w, name, contentType, buf.Bytes())
}

// handleTemplate downloads an empty workbook with the import headers.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := sheet.WriteTemplate(&buf); err != nil {
		respondError(w, r, fmt.Errorf("template: %w", err))
		return
	}
	sendFile(w, "books-template.xlsx", sheet.ContentTypeXLSX, buf.Bytes())
}

func sendFile(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
