package db

import (
	"testing"
	"testing/fstest"
	"time"
)

func TestLoadMigrations(t *testing.T) {
	files := fstest.MapFS{
		"002_pharmacy.sql": {Data: []byte("CREATE TABLE inventory (id UUID);")},
		"001_init.sql":     {Data: []byte("CREATE TABLE staff (id UUID);")},
		"README.md":        {Data: []byte("# ignore me")},
		"notes.sql":        {Data: []byte("-- no numeric prefix")},
		"abc_bad.sql":      {Data: []byte("-- non-numeric prefix")},
	}

	m := NewMigrator(nil, files)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "001_init.sql" {
		t.Errorf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Name != "002_pharmacy.sql" {
		t.Errorf("unexpected second migration: %+v", migrations[1])
	}
	if migrations[0].SQL != "CREATE TABLE staff (id UUID);" {
		t.Errorf("unexpected SQL: %q", migrations[0].SQL)
	}
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	files := fstest.MapFS{
		"001_init.sql":  {Data: []byte("SELECT 1;")},
		"001_again.sql": {Data: []byte("SELECT 2;")},
	}
	if _, err := NewMigrator(nil, files).LoadMigrations(); err == nil {
		t.Fatal("expected error for duplicate version")
	}
}

func TestLoadMigrations_Empty(t *testing.T) {
	migrations, err := NewMigrator(nil, fstest.MapFS{}).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migrations) != 0 {
		t.Errorf("expected no migrations, got %d", len(migrations))
	}
}

func TestPending(t *testing.T) {
	migrations := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}
	applied := map[int]time.Time{1: time.Now(), 3: time.Now()}

	got := pending(migrations, applied)
	if len(got) != 1 || got[0].Version != 2 {
		t.Errorf("expected only version 2 pending, got %+v", got)
	}
}
