package infra

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		marker  string
		body    string
		wantErr error
	}{
		{
			name:   "marked query",
			query:  "\n--sql 1cf592dd-654e-4e15-a8ee-118240701a6a\nselect 1;\n",
			marker: "1cf592dd-654e-4e15-a8ee-118240701a6a",
			body:   "select 1;",
		},
		{name: "empty", query: "  \n ", wantErr: ErrEmptyQuery},
		{name: "no marker", query: "select 1;", wantErr: ErrMissingMarker},
		{name: "bad uuid", query: "--sql not-a-uuid\nselect 1;", wantErr: ErrMissingMarker},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := extractMarker(tc.query)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("extractMarker() err = %v, want %v", err, tc.wantErr)
			}
			if marker != tc.marker || body != tc.body {
				t.Fatalf("extractMarker() = %q,%q want %q,%q", marker, body, tc.marker, tc.body)
			}
		})
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !IsNoRows(fmt.Errorf("load: %w", pgx.ErrNoRows)) {
		t.Fatal("wrapped ErrNoRows not detected")
	}
	if IsNoRows(errors.New("boom")) {
		t.Fatal("unexpected no rows")
	}
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !IsUniqueViolation(dup) {
		t.Fatal("unique violation not detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation reported as unique")
	}
}
