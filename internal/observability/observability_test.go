package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/geocoder89/usersapi/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/trace"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "domain_duplicate", err: fmt.Errorf("insert: %w", user.ErrDuplicateKey), want: "unique_violation"},
		{name: "pg_unique", err: &pgconn.PgError{Code: "23505"}, want: "unique_violation"},
		{name: "pg_other", err: &pgconn.PgError{Code: "42P01"}, want: "pg_42P01"},
		{name: "deadline", err: context.DeadlineExceeded, want: "timeout"},
		{name: "store_down", err: fmt.Errorf("%w: dial", user.ErrStoreUnavailable), want: "connection"},
		{name: "other", err: errors.New("boom"), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyDBErr(tt.err); got != tt.want {
				t.Fatalf("classifyDBErr(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestObserveDB(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newProm(reg, reg)

	_ = p.ObserveDB("users.get", func() error { return user.ErrNotFound })
	_ = p.ObserveDB("users.insert", func() error { return user.ErrDuplicateKey })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.insert", "unique_violation")); got != 1 {
		t.Fatalf("expected one unique_violation, got %v", got)
	}

	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 1 {
		t.Fatalf("not-found must not count as an error, got %d series", got)
	}
}

func TestTraceHandlerAddsSpanIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}

	if rec["trace_id"] != traceID.String() || rec["span_id"] != spanID.String() {
		t.Fatalf("missing trace attrs: %v", rec)
	}
}
