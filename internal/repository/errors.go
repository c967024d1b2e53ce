package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicateDate signals a unique violation on (assignment_id, date).
var ErrDuplicateDate = errors.New("duplicate assignment date")

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
