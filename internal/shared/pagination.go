package shared

// DefaultPageLimit bounds listings when the client sends no limit.
const DefaultPageLimit = 20

// MaxPageLimit caps the page size a client may request.
const MaxPageLimit = 100

// Page carries listing metadata alongside the rows.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// NormalizeLimitOffset clamps client-supplied paging values.
func NormalizeLimitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// NewPage builds paging metadata for a listing response.
func NewPage(limit, offset, total int) Page {
	limit, offset = NormalizeLimitOffset(limit, offset)
	return Page{Limit: limit, Offset: offset, Total: total}
}
