package controller

// TotalPages is ceil(total/size); zero when either is not positive.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// ClampPage keeps page inside [0, totalPages-1].
func ClampPage(page, totalPages int) int {
	if page < 0 {
		return 0
	}
	if last := totalPages - 1; page > last {
		if last < 0 {
			return 0
		}
		return last
	}
	return page
}

// PageAfterChange recomputes the page count from the previous total after
// delta items were added (positive) or removed (negative) and clamps page
// to it.
func PageAfterChange(page, size, prevTotal, delta int) (newPage, totalPages int) {
	total := prevTotal + delta
	if total < 0 {
		total = 0
	}
	totalPages = TotalPages(total, size)
	return ClampPage(page, totalPages), totalPages
}
