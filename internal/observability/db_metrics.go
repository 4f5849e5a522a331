package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/usersapi/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

// ObserveDB times fn under the logical op name. Not-found results are
// expected outcomes and are recorded as "ok".
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func classifyDBErr(err error) string {
	if errors.Is(err, user.ErrDuplicateKey) {
		return "unique_violation"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPgCode(pgErr.Code)
	}

	switch {
	case mongo.IsDuplicateKeyError(err):
		return "unique_violation"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case mongo.IsTimeout(err):
		return "timeout"
	case mongo.IsNetworkError(err), errors.Is(err, user.ErrStoreUnavailable):
		return "connection"
	}

	if msg := strings.ToLower(err.Error()); strings.Contains(msg, "connection") {
		return "connection"
	}
	return "unknown"
}

func classifyPgCode(code string) string {
	switch code {
	case "23505":
		return "unique_violation"
	case "23514":
		return "check_violation"
	case "40001":
		return "serialization_failure"
	case "57014":
		return "query_canceled"
	}
	return "pg_" + code
}
