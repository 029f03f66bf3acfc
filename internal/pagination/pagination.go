// Package pagination implements the fixed-size page windows used by every
// post listing. Out-of-range page numbers clamp to the nearest valid page
// instead of erroring, so stale links keep working.
package pagination

const PageSize = 10

// Page describes one window over a listing, plus the metadata templates need
// to render pagination controls.
type Page struct {
	Number     int
	Size       int
	TotalItems int
	TotalPages int
	HasNext    bool
	HasPrev    bool
	NextPage   int
	PrevPage   int
}

// New clamps requested onto [1, totalPages] and computes the window.
// An empty listing still has a single valid, empty page.
func New(requested, totalItems int) Page {
	totalPages := (totalItems + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	number := requested
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}
	return Page{
		Number:     number,
		Size:       PageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
		HasNext:    number < totalPages,
		HasPrev:    number > 1,
		NextPage:   number + 1,
		PrevPage:   number - 1,
	}
}

// Offset is the number of items to skip for this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}
