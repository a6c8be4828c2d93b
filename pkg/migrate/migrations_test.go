package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/brewbar/bubbletea-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestOrdersMigrationFreezesAmounts(t *testing.T) {
	content := readMigration(t, "create_orders")
	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CHECK (final_amount = total_amount + shipping_fee - discount_amount)",
		"CREATE TABLE IF NOT EXISTS order_item_toppings",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CONSTRAINT promotions_code_key UNIQUE (code)",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
	if strings.Contains(content, "REFERENCES products") {
		t.Error("order items must not reference products")
	}
}

func TestCatalogMigrationRestrictsCategoryDelete(t *testing.T) {
	content := readMigration(t, "create_catalog")
	for _, sub := range []string{
		"FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE RESTRICT",
		"CONSTRAINT product_toppings_product_topping_key UNIQUE (product_id, topping_id)",
		"CHECK (rating BETWEEN 1 AND 5)",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := migrate.ValidateDir(migrate.EmbeddedDir); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
	entries, err := fs.ReadDir(migrate.Embedded(), ".")
	if err != nil {
		t.Fatalf("read embedded: %v", err)
	}
	if len(entries) < 6 {
		t.Fatalf("expected all migrations embedded, got %d", len(entries))
	}
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	bad := fstest.MapFS{"001_init.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")}}
	if err := migrate.ValidateFS(bad); err == nil {
		t.Fatal("expected short version to be rejected")
	}

	missingDown := fstest.MapFS{"20260101000000_init.sql": {Data: []byte("-- +goose Up\n")}}
	if err := migrate.ValidateFS(missingDown); err == nil {
		t.Fatal("expected missing down marker to be rejected")
	}

	dup := fstest.MapFS{
		"20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}
	if err := migrate.ValidateFS(dup); err == nil {
		t.Fatal("expected duplicate version to be rejected")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Promo Index!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_promo_index.sql") {
		t.Fatalf("unexpected path %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration invalid: %v", err)
	}
}
