package communication

import (
	"math"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
)

// MaxPageSize is the largest page a list endpoint returns
const MaxPageSize = 50

// Pagination is the page requested by a client
type Pagination struct {
	Page     int
	PageSize int
}

// ParsePagination reads the page and pageSize query parameters
func ParsePagination(request *http.Request) (Pagination, error) {
	pagination := Pagination{Page: 0, PageSize: MaxPageSize}
	var err error

	queryPage := request.URL.Query().Get("page")
	queryPageSize := request.URL.Query().Get("pageSize")

	if queryPage != "" {
		pagination.Page, err = strconv.Atoi(queryPage)
		if err != nil || pagination.Page < 0 {
			return pagination, errors.Wrap(ErrValidation, "bad query parameter page")
		}
	}

	if queryPageSize != "" {
		pagination.PageSize, err = strconv.Atoi(queryPageSize)
		if err != nil || pagination.PageSize < 1 {
			return pagination, errors.Wrap(ErrValidation, "bad query parameter pageSize")
		}

		if pagination.PageSize > MaxPageSize {
			return pagination, errors.Wrapf(ErrValidation, "page size can't be more than %d", MaxPageSize)
		}
	}

	return pagination, nil
}

// PaginatedResponse wraps a result page with its pagination block
func PaginatedResponse(results interface{}, count int, pagination Pagination) map[string]interface{} {
	pages := float64(count) / float64(pagination.PageSize)

	return map[string]interface{}{
		"results": results,
		"pagination": map[string]interface{}{
			"resultCount": count,
			"pageSize":    pagination.PageSize,
			"pageIndex":   pagination.Page,
			"pages":       int(math.Ceil(pages)),
		},
	}
}
