package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/reelpass-backend/pkg/migrate"
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

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestCatalogMigrationGuardsSeatCounts(t *testing.T) {
	assertContains(t, readMigration(t, "create_catalog"), []string{
		"CREATE TABLE IF NOT EXISTS showtimes",
		"CHECK (available_count >= 0)",
		"CHECK (available_count <= total_capacity)",
		"CONSTRAINT idx_showtime_seats_unique UNIQUE (showtime_id, seat_id)",
		"CONSTRAINT idx_reviews_movie_user UNIQUE (movie_id, user_id)",
		"DROP TABLE IF EXISTS showtime_seats",
	})
}

func TestPaymentMigrationKeysOrdersPerGateway(t *testing.T) {
	assertContains(t, readMigration(t, "create_payment_transactions"), []string{
		"CONSTRAINT idx_payment_transactions_order UNIQUE (gateway, gateway_order_id)",
		"CHECK (amount_minor > 0)",
		"DROP TABLE IF EXISTS payment_transactions",
	})
}

func TestVendorLedgerMigrationKeepsEntriesUnique(t *testing.T) {
	assertContains(t, readMigration(t, "create_vendor_ledger"), []string{
		"CONSTRAINT idx_vendor_earnings_source UNIQUE (entry_type, source_type, source_id)",
		"CONSTRAINT idx_vendor_withdrawals_transfer UNIQUE (transfer_id)",
		"hold_released boolean NOT NULL DEFAULT false",
		"CHECK (payee_stage IN ('none', 'payee_ready'))",
	})
}

func TestVendorMigrationCachesOnePayeePerProvider(t *testing.T) {
	assertContains(t, readMigration(t, "create_vendors"), []string{
		"CONSTRAINT idx_vendors_email UNIQUE (email)",
		"CONSTRAINT idx_vendor_payees_vendor_provider UNIQUE (vendor_id, provider)",
	})
}

func TestEmbeddedMigrationsMatchSourceTree(t *testing.T) {
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	embedded, err := fs.Glob(migrate.Embedded(), "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	if len(embedded) != len(onDisk) || len(embedded) == 0 {
		t.Fatalf("expected %d embedded migrations, got %d", len(onDisk), len(embedded))
	}
}
