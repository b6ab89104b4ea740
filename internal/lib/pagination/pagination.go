package pagination

import (
	"math"
	"net/http"
	"strconv"
)

// PageSize is the fixed number of rows per page on every list endpoint.
const PageSize = 20

// MaxPage caps the page number so Offset stays positive.
const MaxPage = math.MaxInt32 / PageSize

type Page struct {
	Number int
	Size   int
}

// FromRequest reads the page query parameter. Missing, malformed and non-positive
// values all clamp to the first page; larger values than MaxPage clamp to MaxPage.
func FromRequest(r *http.Request) Page {
	return Parse(r.URL.Query().Get("page"))
}

func Parse(raw string) Page {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		n = 1
	}
	if n > MaxPage {
		n = MaxPage
	}

	return Page{Number: n, Size: PageSize}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) Limit() int {
	return p.Size
}

// TotalPages is ceil(total / size); zero rows gives zero pages.
func (p Page) TotalPages(total int64) int64 {
	if total <= 0 {
		return 0
	}

	size := int64(p.Size)
	pages := total / size
	if total%size != 0 {
		pages++
	}

	return pages
}

// Info is the page block embedded in list envelopes.
type Info struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	TotalPages int64 `json:"totalPages"`
}

func (p Page) Info(total int64) Info {
	return Info{Total: total, Page: p.Number, TotalPages: p.TotalPages(total)}
}

// Meta is the nested "pagination" object of post listings.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func (p Page) Meta(total int64) Meta {
	return Meta{Page: p.Number, Limit: p.Size, Total: total, TotalPages: p.TotalPages(total)}
}
