package pagination

// TotalPages is ceil(total/size), never less than one.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		return 1
	}
	return pages
}

// Offset returns the zero-based index of the first record on page.
// Pages below one are treated as page one.
func Offset(page, size int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * size
}

// Clamp bounds page into [1, totalPages].
func Clamp(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if totalPages >= 1 && page > totalPages {
		return totalPages
	}
	return page
}

// Page is one slice of a reverse-chronological listing.
type Page[T any] struct {
	Records    []T
	TotalCount int64
	Page       int
	TotalPages int
}

// NewPage assembles a Page from one store read.
func NewPage[T any](records []T, total int64, page, size int) *Page[T] {
	if page < 1 {
		page = 1
	}
	return &Page[T]{
		Records:    records,
		TotalCount: total,
		Page:       page,
		TotalPages: TotalPages(total, size),
	}
}
