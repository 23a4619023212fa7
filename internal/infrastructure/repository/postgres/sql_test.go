package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("expected true for sql.ErrNoRows")
	}
	if !isNotFound(fmt.Errorf("get row: %w", sql.ErrNoRows)) {
		t.Fatalf("expected true for wrapped sql.ErrNoRows")
	}
	if isNotFound(fmt.Errorf("connection reset")) {
		t.Fatalf("expected false for unrelated error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: "team_members_pkey"}

	if !isUniqueViolation(err, "") {
		t.Fatalf("expected true for any unique violation")
	}
	if !isUniqueViolation(err, "team_members_pkey") {
		t.Fatalf("expected true for matching constraint")
	}
	if isUniqueViolation(err, "other_constraint") {
		t.Fatalf("expected false for non-matching constraint")
	}
	if isUniqueViolation(fmt.Errorf("plain error"), "") {
		t.Fatalf("expected false for non-pq error")
	}

	wrapped := fmt.Errorf("insert member: %w", err)
	if !isUniqueViolation(wrapped, "team_members_pkey") {
		t.Fatalf("expected true for wrapped pq error")
	}
}

func TestIsExclusionViolation(t *testing.T) {
	if !isExclusionViolation(&pq.Error{Code: "23P01"}) {
		t.Fatalf("expected true for exclusion violation")
	}
	if isExclusionViolation(&pq.Error{Code: "23505"}) {
		t.Fatalf("expected false for unique violation")
	}
	if isExclusionViolation(fmt.Errorf("plain error")) {
		t.Fatalf("expected false for non-pq error")
	}
}
