package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/fitkeeper/internal/server/services"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Code       string      `json:"code,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPagination derives the page metadata. page and limit are positive.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    int64(page) < totalPages,
		HasPrev:    page > 1,
	}
}

// Response is what a handler returns on success.
type Response struct {
	Status     int
	Message    string
	Data       any
	Pagination *Pagination
}

func OK(data any, message string) *Response {
	return &Response{Status: http.StatusOK, Message: message, Data: data}
}

func Created(data any, message string) *Response {
	return &Response{Status: http.StatusCreated, Message: message, Data: data}
}

// Paginated wraps a result page. Items are always encoded as an array.
func Paginated[D any](p *services.Page[D], message string) *Response {
	items := p.Items
	if items == nil {
		items = []D{}
	}
	pg := NewPagination(p.Page, p.Limit, p.Total)
	return &Response{Status: http.StatusOK, Message: message, Data: items, Pagination: &pg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeResponse(w http.ResponseWriter, res *Response) {
	if res == nil {
		res = OK(nil, "ok")
	}
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, Envelope{
		Success:    true,
		Message:    res.Message,
		Data:       res.Data,
		Pagination: res.Pagination,
	})
}
