package repo

import "github.com/lib/pq"

func pqUniqueViolation() error {
	return &pq.Error{Code: "23505"}
}
