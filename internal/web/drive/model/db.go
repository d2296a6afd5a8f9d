package model

import (
	"context"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-drive/library/db/postgres"
	"github.com/Laisky/laisky-drive/library/log"
)

var DB *gorm.DB

func Initialize(ctx context.Context) {
	var err error
	if DB, err = postgres.NewDB(ctx, postgres.DialInfo{
		Addr:   gconfig.Shared.GetString("settings.db.postgres.addr"),
		DBName: gconfig.Shared.GetString("settings.db.postgres.db"),
		User:   gconfig.Shared.GetString("settings.db.postgres.user"),
		Pwd:    gconfig.Shared.GetString("settings.db.postgres.passwd"),
	}); err != nil {
		log.Logger.Panic("connect to drive db", zap.Error(err))
	}

	if err = Migrate(ctx, DB); err != nil {
		log.Logger.Panic("migrate drive db", zap.Error(err))
	}
}

// uniqueSiblingIndex backs the per-directory name invariant at the
// schema level: the transactional sibling count gives the friendly
// error, this index closes the race between concurrent creators.
// Unique indexes treat NULL parents as distinct, so the root scope is
// folded to 0, an id no entry is ever assigned.
const uniqueSiblingIndex = `CREATE UNIQUE INDEX IF NOT EXISTS uq_drive_entries_sibling_name ON drive_entries (owner_id, COALESCE(parent_id, 0), name)`

// Migrate ensures the drive tables, the parent-id cascade constraint,
// and the sibling-name unique index exist.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("gorm db is required")
	}

	if err := db.WithContext(ctx).AutoMigrate(&User{}, &Entry{}); err != nil {
		return errors.Wrap(err, "auto migrate drive tables")
	}

	if err := db.WithContext(ctx).Exec(uniqueSiblingIndex).Error; err != nil {
		return errors.Wrap(err, "create sibling name index")
	}

	return nil
}
