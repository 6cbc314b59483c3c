package viewer

import "strconv"

// DisplayRange is how many pages either side of the current page a
// pagination window shows.
const DisplayRange = 2

// PageItem is one entry of a pagination window: a page number or an
// ellipsis standing for a collapsed run of pages.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

func (p PageItem) String() string {
	if p.Ellipsis {
		return "..."
	}
	return strconv.Itoa(p.Page)
}

// TotalPages returns how many pages of size limit hold total items.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Window lays out pagination controls for page out of totalPages. The
// first and last pages are always present, as are the pages within
// DisplayRange of the current one; gaps between them collapse into a
// single ellipsis. A single page needs no controls and yields nil.
func Window(page, totalPages int) []PageItem {
	if totalPages <= 1 {
		return nil
	}
	page = max(1, min(page, totalPages))

	var items []PageItem
	if page > DisplayRange+1 {
		items = append(items, PageItem{Page: 1})
		if page > DisplayRange+2 {
			items = append(items, PageItem{Ellipsis: true})
		}
	}

	for p := max(1, page-DisplayRange); p <= min(totalPages, page+DisplayRange); p++ {
		items = append(items, PageItem{Page: p})
	}

	if page < totalPages-DisplayRange {
		if page < totalPages-DisplayRange-1 {
			items = append(items, PageItem{Ellipsis: true})
		}
		items = append(items, PageItem{Page: totalPages})
	}
	return items
}
