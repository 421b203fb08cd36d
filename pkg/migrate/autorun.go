package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/db"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

// autorunLockID is the advisory lock key held while a dev process migrates.
const autorunLockID int64 = 0x7265656c70617373

// MaybeRunDev applies pending migrations at startup in dev when
// REELPASS_AUTO_MIGRATE is set. The api, worker and publisher may boot
// together, so the run is serialized on a Postgres advisory lock.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	gdb := client.DB()
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})

	unlock, err := lockAutorun(ctx, sqlDB, gdb.Dialector.Name())
	if err != nil {
		return err
	}
	defer unlock()

	started := time.Now()
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "duration_ms", time.Since(started).Milliseconds()), "dev migrations applied")
	return nil
}

func lockAutorun(ctx context.Context, sqlDB *sql.DB, dialect string) (func(), error) {
	if dialect != "postgres" {
		return func() {}, nil
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration lock connection: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", autorunLockID); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("acquire migration lock: %w", err)
	}
	return func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", autorunLockID)
		_ = conn.Close()
	}, nil
}
