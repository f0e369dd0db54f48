package question

// Paginate returns the 1-based page of items. Pages past the end are empty.
func Paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 || len(items) == 0 {
		return []T{}
	}
	// compare page indexes first so (page-1)*pageSize cannot overflow
	if page-1 > (len(items)-1)/pageSize {
		return []T{}
	}
	start := (page - 1) * pageSize
	end := start + min(pageSize, len(items)-start)
	return items[start:end]
}
