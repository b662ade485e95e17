package store

import (
	"database/sql"
	"testing"

	"github.com/homeboardhq/homeboard/internal/database"
	"github.com/homeboardhq/homeboard/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// Ensure foreign keys are enforced (modernc/sqlite may not honor DSN param for :memory:)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedFamily creates a family with one admin member and returns both.
func seedFamily(t *testing.T, db *sql.DB) (*model.Family, *model.FamilyMember) {
	t.Helper()
	fam, err := NewFamilyStore(db).Create("Test Family")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	member, err := NewFamilyMemberStore(db).Create(fam.ID, nil, "Alice", model.RoleAdmin, "blue")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return fam, member
}

func ptr[T any](v T) *T { return &v }
