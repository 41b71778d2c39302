package aggregate

// Page computes a 1-based window over a fully known (bounded) source. The
// returned total is exact.
func Page[T any](items []T, page, pageSize int) (window []T, hasNext, hasPrev bool, total int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	total = len(items)
	start := (page - 1) * pageSize
	if start >= total {
		return nil, false, page > 1, total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return items[start:end], end < total, page > 1, total
}

// Window trims a look-ahead fetch (pageSize+1 items requested) down to the
// page and derives hasNext from the overflow. Used for unbounded or
// streaming sources where the total is only approximately known.
func Window[T any](fetched []T, page, pageSize int) (window []T, hasNext, hasPrev bool) {
	if page < 1 {
		page = 1
	}
	hasNext = len(fetched) > pageSize
	if hasNext {
		fetched = fetched[:pageSize]
	}
	return fetched, hasNext, page > 1
}
