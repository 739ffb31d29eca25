package memory

import (
	"fmt"
	"sort"
	"time"

	"jeezy-monetization-be/internal/repository/specification"

	"github.com/google/uuid"
)

// row exposes the columns specifications can filter on.
type row struct {
	id              uuid.UUID
	userID          uuid.UUID
	email           string
	transactionID   string
	transactionType string
	status          string
	orderID         string
	createdAt       time.Time
	seq             int64
}

type listOptions struct {
	desc   bool
	limit  int
	offset int
}

func matches(r row, specs []specification.Specification) (bool, error) {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if r.id != s.ID {
				return false, nil
			}
		case specification.UserOwnedBy:
			if r.userID != s.UserID {
				return false, nil
			}
		case specification.ByEmail:
			if r.email != s.Email {
				return false, nil
			}
		case specification.ByTransactionID:
			if r.transactionID != s.TransactionID {
				return false, nil
			}
		case specification.ByTransactionType:
			if r.transactionType != s.Type {
				return false, nil
			}
		case specification.ByStatus:
			if r.status != s.Status {
				return false, nil
			}
		case specification.ByOrderID:
			if r.orderID != s.OrderID {
				return false, nil
			}
		case specification.OrderBy, specification.Pagination:
		default:
			return false, fmt.Errorf("memory store: unsupported specification %T", spec)
		}
	}
	return true, nil
}

// options reads ordering and paging. Ordering is always by creation time.
func options(specs []specification.Specification) listOptions {
	var o listOptions
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.OrderBy:
			o.desc = s.Desc
		case specification.Pagination:
			o.limit = s.Limit
			o.offset = s.Offset
		}
	}
	return o
}

func sortAndPage(rows []row, o listOptions) []row {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].createdAt.Equal(rows[j].createdAt) {
			if o.desc {
				return rows[i].seq > rows[j].seq
			}
			return rows[i].seq < rows[j].seq
		}
		if o.desc {
			return rows[i].createdAt.After(rows[j].createdAt)
		}
		return rows[i].createdAt.Before(rows[j].createdAt)
	})

	if o.offset >= len(rows) {
		return nil
	}
	rows = rows[o.offset:]
	if o.limit > 0 && o.limit < len(rows) {
		rows = rows[:o.limit]
	}
	return rows
}
