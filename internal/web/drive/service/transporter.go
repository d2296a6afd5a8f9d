package service

import (
	"context"
	"fmt"
	"io"
	"time"

	errors "github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/klauspost/compress/zip"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-drive/internal/web/drive/dao"
	"github.com/Laisky/laisky-drive/internal/web/drive/model"
)

// presignTTL limits direct download links to one hour.
const presignTTL = time.Hour

// Transporter moves file payloads between the caller and the object
// store: transactional uploads and streamed hierarchical archives.
type Transporter struct {
	entries *dao.Entries
	users   *dao.Users
	objects Gateway
}

func NewTransporter(entries *dao.Entries, users *dao.Users, objects Gateway) *Transporter {
	return &Transporter{
		entries: entries,
		users:   users,
		objects: objects,
	}
}

// Upload stores a file's bytes and its metadata row atomically from the
// caller's point of view. The object-store put happens before the
// metadata insert, so a crash between the two leaves at worst an
// orphaned object and never metadata pointing at missing bytes. Any
// transaction failure after a successful put, insert rejection and
// failed commit alike, triggers a best-effort compensating delete of
// the fresh object; failure of the compensation is logged and does not
// mask the original failure.
func (t *Transporter) Upload(ctx context.Context, ownerID uint64, parentID *uint64, fileName string, r io.Reader, size int64, contentType string) error {
	logger := loggerFromCtx(ctx)

	if err := requireUser(ctx, t.users, ownerID); err != nil {
		return errors.WithStack(err)
	}
	if err := validateEntryName(fileName); err != nil {
		return errors.WithStack(err)
	}

	var objectRef string
	txErr := t.entries.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := t.entries.CountSiblings(ctx, tx, ownerID, parentID, fileName)
		if err != nil {
			return errors.WithStack(err)
		}
		if count > 0 {
			return errors.WithStack(errDuplicateName(fileName))
		}

		ref, err := t.objects.Put(ctx, r, size, ownerID, contentType)
		if err != nil {
			logger.Error("put object to store",
				zap.Error(err),
				zap.Uint64("user", ownerID),
				zap.String("file", fileName))
			return errors.WithStack(NewError(ErrCodeUnspecified, "failed to store file bytes"))
		}
		objectRef = ref

		if err := t.entries.Insert(ctx, tx, &model.Entry{
			OwnerID:     ownerID,
			ParentID:    parentID,
			Name:        fileName,
			IsDirectory: false,
			ObjectRef:   objectRef,
			SizeBytes:   size,
		}); err != nil {
			logger.Error("insert uploaded file metadata",
				zap.Error(err),
				zap.Uint64("user", ownerID),
				zap.String("file", fileName),
				zap.String("object_ref", objectRef))
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.WithStack(errDuplicateName(fileName))
			}
			return errors.WithStack(NewError(ErrCodeUnspecified, "failed to save file metadata"))
		}

		return nil
	})
	if txErr == nil {
		return nil
	}

	// any failure past the put leaves the fresh object orphaned; this
	// covers the commit itself failing, not just the insert
	if objectRef != "" {
		logger.Info("deleting just-uploaded object", zap.String("object_ref", objectRef))
		if delErr := t.objects.DeleteMany(ctx, []string{objectRef}); delErr != nil {
			logger.Error("failed to delete just-uploaded object",
				zap.Error(delErr),
				zap.String("object_ref", objectRef))
		}
	}

	return errors.WithStack(txErr)
}

// DownloadArchive validates the selection, then streams a zip archive
// whose layout mirrors the selected subtrees. The returned reader is
// live immediately; the producer finalizes the archive trailer in the
// background, so consumption start and archive completion never wait
// on each other. Mid-build failures surface as InvalidState from the
// reader before the caller can mistake the stream for a complete file.
func (t *Transporter) DownloadArchive(ctx context.Context, ownerID uint64, entryIDs []uint64) (io.ReadCloser, error) {
	logger := loggerFromCtx(ctx)

	if err := requireUser(ctx, t.users, ownerID); err != nil {
		return nil, errors.WithStack(err)
	}

	entries, err := t.entries.FindOwned(ctx, t.entries.DB(), ownerID, entryIDs)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if len(entries) != len(entryIDs) {
		return nil, errors.WithStack(NewError(ErrCodeNotFound,
			"request references entries that do not exist or belong to another user"))
	}

	pr, pw := io.Pipe()
	go func() {
		zw := zip.NewWriter(pw)

		if err := t.writeArchive(ctx, zw, ownerID, entries); err != nil {
			logger.Error("build archive",
				zap.Error(err),
				zap.Uint64("user", ownerID),
				zap.Uint64s("entries", entryIDs))
			pw.CloseWithError(NewError(ErrCodeInvalidState,
				fmt.Sprintf("archive build failed: %s", err)))
			return
		}

		// write the trailer before completing the stream
		if err := zw.Close(); err != nil {
			logger.Error("finalize archive", zap.Error(err), zap.Uint64("user", ownerID))
			pw.CloseWithError(NewError(ErrCodeInvalidState,
				fmt.Sprintf("archive finalize failed: %s", err)))
			return
		}

		_ = pw.Close()
	}()

	return pr, nil
}

// PresignedFileURL signs a direct, time-limited download link for a
// single owned file.
func (t *Transporter) PresignedFileURL(ctx context.Context, ownerID, entryID uint64) (string, error) {
	entry, err := t.entries.FindByID(ctx, t.entries.DB(), ownerID, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errors.WithStack(NewError(ErrCodeNotFound,
				fmt.Sprintf("entry %d not found", entryID)))
		}
		return "", errors.WithStack(err)
	}
	if entry.IsDirectory {
		return "", errors.WithStack(NewError(ErrCodeInvalidArguments,
			"directories have no direct download link"))
	}

	signed, err := t.objects.PresignedURL(ctx, entry.ObjectRef, presignTTL)
	if err != nil {
		return "", errors.WithStack(NewError(ErrCodeUnspecified, "failed to sign download link"))
	}

	return signed, nil
}
