package pagination

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize applies the list defaults: page 1, page size 20, capped at 100.
func Normalize(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset is the number of rows to skip for the given page.
func Offset(page, pageSize int) int {
	return (page - 1) * pageSize
}

// TotalPages is the ceiling of total/pageSize.
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
