// Package postgres provides the shared postgres client used by the drive services.
package postgres

import (
	"context"
	"database/sql"
	stdLog "log"
	"os"
	"time"

	errors "github.com/Laisky/errors/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DialInfo postgres dial info
type DialInfo struct {
	Addr,
	DBName,
	User,
	Pwd string
}

// BuildDSN builds a PostgreSQL DSN for shared database clients.
func BuildDSN(dialInfo DialInfo) string {
	return "host=" + dialInfo.Addr + " user=" + dialInfo.User + " password=" + dialInfo.Pwd + " dbname=" + dialInfo.DBName + " port=5432 sslmode=disable TimeZone=UTC"
}

// NewDB dials postgres over pgx and wraps the connection with gorm.
func NewDB(ctx context.Context, dialInfo DialInfo) (*gorm.DB, error) {
	dsn := BuildDSN(dialInfo)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err = db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "ping postgres")
	}

	// config db
	db.SetMaxIdleConns(6)
	db.SetMaxOpenConns(50)
	db.SetConnMaxLifetime(time.Hour)

	logger := newTruncatingParamsLogger(gormLogger.New(
		stdLog.New(os.Stdout, "\r\n", stdLog.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	))

	gdb, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db}), &gorm.Config{
		Logger:         logger,
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open gorm over pgx")
	}

	return gdb, nil
}
