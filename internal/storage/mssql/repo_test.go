package mssql

import (
	"strings"
	"testing"

	"mwdump/internal/storage"
)

func TestDialect(t *testing.T) {
	t.Parallel()
	ddl := Dialect.CreateTable("dbo.mw_conversions")
	if !strings.HasPrefix(ddl, "IF OBJECT_ID(N'dbo.mw_conversions', N'U') IS NULL") {
		t.Fatalf("ddl = %q", ddl)
	}
	for _, col := range storage.Columns {
		if !strings.Contains(ddl, col) {
			t.Fatalf("ddl lacks column %s", col)
		}
	}
	if got := Dialect.Placeholder(12); got != "@p12" {
		t.Fatalf("placeholder = %q", got)
	}
}

func TestRegistered(t *testing.T) {
	t.Parallel()
	for _, k := range storage.Kinds() {
		if k == "mssql" {
			return
		}
	}
	t.Fatalf("mssql not in %v", storage.Kinds())
}
