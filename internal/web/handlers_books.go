package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/schoolbooks/internal/core"
)

// maxJSONBody bounds add and update payloads.
const maxJSONBody = 1 << 20

// bookPayload is the JSON body of add and update. Every field is required;
// pointers distinguish an absent field from a zero value.
type bookPayload struct {
	Zone         *string          `json:"zone"`
	Grade        *string          `json:"grade"`
	SKU          *string          `json:"sku"`
	BookName     *string          `json:"book_name"`
	BookCategory *string          `json:"book_category"`
	Qty          *int64           `json:"qty"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
}

func (p bookPayload) toInput() (core.BookInput, error) {
	var missing []string
	str := func(name string, v *string) string {
		if v == nil {
			missing = append(missing, name)
			return ""
		}
		return strings.TrimSpace(*v)
	}

	in := core.BookInput{
		Zone:         str("zone", p.Zone),
		Grade:        str("grade", p.Grade),
		SKU:          str("sku", p.SKU),
		BookName:     str("book_name", p.BookName),
		BookCategory: str("book_category", p.BookCategory),
	}
	if p.Qty == nil {
		missing = append(missing, "qty")
	} else {
		in.Qty = *p.Qty
	}
	if p.SellingPrice == nil {
		missing = append(missing, "selling_price")
	} else {
		in.SellingPrice = *p.SellingPrice
	}
	if p.CostPrice == nil {
		missing = append(missing, "cost_price")
	} else {
		in.CostPrice = *p.CostPrice
	}

	if len(missing) > 0 {
		return core.BookInput{}, &core.ValidationError{Message: "missing fields: " + strings.Join(missing, ", ")}
	}
	if !core.InRange(in.SellingPrice) {
		return core.BookInput{}, &core.ValidationError{Field: "selling_price", Message: "is out of range"}
	}
	if !core.InRange(in.CostPrice) {
		return core.BookInput{}, &core.ValidationError{Field: "cost_price", Message: "is out of range"}
	}
	return in, nil
}

// decodeBook reads a bookPayload from the request body.
func decodeBook(w http.ResponseWriter, r *http.Request) (core.BookInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var p bookPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		return core.BookInput{}, &core.ValidationError{Message: "invalid JSON body", Err: err}
	}
	return p.toInput()
}

// handleListBooks returns the books matching the query string criteria.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := s.service.QueryBooks(r.Context(), c)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	row, err := s.service.GetBook(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	in, err := decodeBook(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.service.AddBook(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// handleUpdateBook replaces every attribute of a book.
func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	in, err := decodeBook(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.service.UpdateBook(r.Context(), id, in); err != nil {
		respondError(w, r, err)
		return
	}

	row, err := s.service.GetBook(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.service.DeleteBook(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.service.FilterOptions(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// summaryGroup adds each group's share of overall selling.
type summaryGroup struct {
	core.GroupTotal
	Share decimal.Decimal `json:"share"`
}

type summaryResponse struct {
	Dimension core.Dimension `json:"dimension"`
	Groups    []summaryGroup `json:"groups"`
	Overall   core.Totals    `json:"overall"`
}

// handleSummary returns chart data grouped by ?by= (zone, grade or category)
// over the books matching the query string criteria.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dim, err := core.ParseDimension(q.Get("by"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	c, err := parseCriteria(q)
	if err != nil {
		respondError(w, r, err)
		return
	}

	sum, err := s.service.Summarize(r.Context(), dim, c)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := summaryResponse{
		Dimension: sum.Dimension,
		Groups:    make([]summaryGroup, len(sum.Groups)),
		Overall:   sum.Overall,
	}
	for i, g := range sum.Groups {
		resp.Groups[i] = summaryGroup{GroupTotal: g, Share: sum.Share(g)}
	}
	writeJSON(w, http.StatusOK, resp)
}
