package request

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
)

var ErrBadID = errors.New("invalid id")

// ID reads a positive integer path parameter.
func ID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id < 1 {
		return 0, ErrBadID
	}

	return id, nil
}
