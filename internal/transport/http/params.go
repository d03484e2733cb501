package httptransport

import (
	"fmt"
	"net/http"
	"strconv"
)

// pageParams is the web pagination request. Size zero means pagination
// disabled.
type pageParams struct {
	Size   int
	Number int
}

// parsePage validates the pagination query string. An out-of-range
// page_size is a client error, whether too small or too large; zero is only
// reachable by omitting the parameter.
func parsePage(r *http.Request, maxSize int) (pageParams, error) {
	q := r.URL.Query()
	page := pageParams{Number: 1}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxSize {
			return page, fmt.Errorf("page_size must be an integer between 1 and %d", maxSize)
		}
		page.Size = n
	}
	if v := q.Get("page_number"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return page, fmt.Errorf("page_number must be a positive integer")
		}
		page.Number = n
	}
	return page, nil
}
