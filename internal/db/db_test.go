package db

import (
	"strings"
	"testing"
)

func TestSchemaPairOrderUsesByteCollation(t *testing.T) {
	want := `CHECK (user1_id < user2_id COLLATE "C")`
	if got := strings.Count(schemaSQL, want); got != 2 {
		t.Fatalf("expected pair order check with C collation in table and migration, got %d", got)
	}
	if strings.Contains(schemaSQL, "CHECK (user1_id < user2_id)") {
		t.Fatalf("schema still compares pair ids with the database collation")
	}
}

func TestSchemaIsIdempotent(t *testing.T) {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if strings.HasPrefix(stmt, "CREATE TABLE") && !strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS") {
			t.Fatalf("table statement must be idempotent: %q", stmt)
		}
	}
}
