package sqlguard

import (
	"strings"
	"testing"
)

func TestValidateReadOnlyAllowedForms(t *testing.T) {
	for _, query := range []string{
		"SELECT * FROM parts",
		"select part_name from parts where brand = 'Whirlpool'",
		"  WITH recent AS (SELECT * FROM repairs) SELECT * FROM recent",
		"SHOW search_path",
		"EXPLAIN SELECT * FROM parts",
		"SELECT 1;",
	} {
		if err := ValidateReadOnly(query); err != nil {
			t.Errorf("ValidateReadOnly(%q) = %v, want nil", query, err)
		}
	}
}

func TestValidateReadOnlyRejected(t *testing.T) {
	for _, query := range []string{
		"INSERT INTO parts VALUES ('x')",
		"UPDATE parts SET part_price = 0",
		"DELETE FROM parts",
		"DROP TABLE parts",
		"TRUNCATE parts",
		"ALTER TABLE parts ADD COLUMN x TEXT",
		"CREATE TABLE x (y TEXT)",
		"GRANT ALL ON parts TO public",
		"",
		"   ",
	} {
		if err := ValidateReadOnly(query); err == nil {
			t.Errorf("ValidateReadOnly(%q) = nil, want error", query)
		}
	}
}

func TestValidateReadOnlyMultiStatement(t *testing.T) {
	err := ValidateReadOnly("SELECT 1; DROP TABLE parts")
	if err == nil {
		t.Fatal("expected multi-statement rejection")
	}
	if !strings.Contains(err.Error(), "multiple statements") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestEnsureLimitAppends(t *testing.T) {
	got := EnsureLimit("SELECT * FROM parts WHERE brand = 'GE'", 10)
	want := "SELECT * FROM parts WHERE brand = 'GE' LIMIT 10"
	if got != want {
		t.Errorf("EnsureLimit = %q, want %q", got, want)
	}
}

func TestEnsureLimitPreservesExisting(t *testing.T) {
	query := "SELECT * FROM parts LIMIT 3"
	if got := EnsureLimit(query, 10); got != query {
		t.Errorf("EnsureLimit = %q, want unchanged", got)
	}

	query = "select * from parts limit 3"
	if got := EnsureLimit(query, 10); got != query {
		t.Errorf("EnsureLimit = %q, want unchanged", got)
	}
}

func TestEnsureLimitSkipsNonRowReads(t *testing.T) {
	for _, query := range []string{
		"SHOW search_path",
		"EXPLAIN SELECT * FROM parts",
	} {
		if got := EnsureLimit(query, 10); got != query {
			t.Errorf("EnsureLimit(%q) = %q, want unchanged", query, got)
		}
	}
}

func TestEnsureLimitStripsTrailingSemicolon(t *testing.T) {
	got := EnsureLimit("SELECT * FROM parts;", 10)
	want := "SELECT * FROM parts LIMIT 10"
	if got != want {
		t.Errorf("EnsureLimit = %q, want %q", got, want)
	}
}
