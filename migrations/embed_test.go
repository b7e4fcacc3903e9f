package migrations

import (
	"strings"
	"testing"

	"github.com/clinicops/clinic/internal/platform/db"
)

func TestEmbeddedMigrationsLoad(t *testing.T) {
	migrations, err := db.NewMigrator(nil, FS).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migrations) < 7 {
		t.Fatalf("expected at least 7 migrations, got %d", len(migrations))
	}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, expected %d", m.Name, m.Version, i+1)
		}
		if strings.TrimSpace(m.SQL) == "" {
			t.Errorf("migration %s is empty", m.Name)
		}
	}
}

func TestInventoryStockConstraint(t *testing.T) {
	b, err := FS.ReadFile("004_pharmacy.sql")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "CHECK (quantity_in_stock >= 0)") {
		t.Error("inventory must reject negative stock at the database level")
	}
}
