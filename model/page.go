package model

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Data        []T   `json:"data"`
	PageSize    int   `json:"pageSize"`
	CurrentPage int   `json:"currentPage"`
	TotalData   int64 `json:"totalData"`
}

// Skip is the number of records before the first one of the page.
func Skip(page, size int) int64 {
	return int64(page-1) * int64(size)
}
