package pagination

const (
	// DefaultPerPage is the page size for offset listings.
	DefaultPerPage = 15
	// MaxPerPage caps page-based listings.
	MaxPerPage = 100
)

// Page holds 1-based offset pagination inputs.
type Page struct {
	Page    int
	PerPage int
}

// NormalizePage clamps page and per_page to their allowed ranges.
func NormalizePage(p Page) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	n := NormalizePage(p)
	return (n.Page - 1) * n.PerPage
}

// LastPage computes the final page number for total rows; never below 1.
func LastPage(total int64, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
