// Package service implements the drive core: tree metadata writes, reads,
// and file transport between the caller and the object store.
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	errors "github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"

	"github.com/Laisky/laisky-drive/internal/web/drive/dao"
	"github.com/Laisky/laisky-drive/library/log"
)

// Gateway is the object-store boundary consumed by the drive services.
// *dao.ObjectStore is the production implementation; tests substitute a
// recording fake.
type Gateway interface {
	Put(ctx context.Context, r io.Reader, size int64, ownerID uint64, contentType string) (string, error)
	GetStream(ctx context.Context, objectRef string) (io.ReadCloser, error)
	DeleteMany(ctx context.Context, objectRefs []string) error
	PresignedURL(ctx context.Context, objectRef string, ttl time.Duration) (string, error)
}

var (
	InstanceAuth        *Auth
	InstanceWriter      *Writer
	InstanceReader      *Reader
	InstanceTransporter *Transporter
)

func Initialize(ctx context.Context) {
	dao.Initialize(ctx)

	InstanceAuth = NewAuth(dao.InstanceUsers)
	InstanceReader = NewReader(dao.InstanceEntries)
	InstanceWriter = NewWriter(dao.InstanceEntries, dao.InstanceUsers, dao.InstanceObjects)
	InstanceTransporter = NewTransporter(dao.InstanceEntries, dao.InstanceUsers, dao.InstanceObjects)
}

// loggerFromCtx returns the request-scoped logger when available.
func loggerFromCtx(ctx context.Context) logSDK.Logger {
	if ctx != nil {
		if ctxLogger := gmw.GetLogger(ctx); ctxLogger != nil {
			return ctxLogger
		}
	}
	return log.Logger.Named("drive")
}

// requireUser ensures the owner identity resolves to an existing account.
func requireUser(ctx context.Context, users *dao.Users, ownerID uint64) error {
	ok, err := users.Exists(ctx, ownerID)
	if err != nil {
		return errors.Wrap(err, "check user")
	}
	if !ok {
		return errors.WithStack(NewError(ErrCodeUnauthorized,
			fmt.Sprintf("user ID %d not found", ownerID)))
	}

	return nil
}
