package http

import (
	"net/http"
	"strconv"

	"classbook/pkg/config"
	apperrors "classbook/pkg/errors"
)

// ExtractLimitOffset reads pagination parameters and normalizes them into
// the configured bounds.
func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		if v < 1 || v > config.MaxPaginationLimit {
			return 0, 0, apperrors.InvalidInput("limit must be between 1 and 100")
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = int64(v)
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}
