package service

import (
	"context"
	"fmt"

	errors "github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-drive/internal/web/drive/dao"
	"github.com/Laisky/laisky-drive/internal/web/drive/model"
)

// Writer mutates the entry tree: directory creation, renames, and
// (recursive) deletes coordinated with the object store.
type Writer struct {
	entries *dao.Entries
	users   *dao.Users
	objects Gateway
}

func NewWriter(entries *dao.Entries, users *dao.Users, objects Gateway) *Writer {
	return &Writer{
		entries: entries,
		users:   users,
		objects: objects,
	}
}

// CreateDirectory adds a directory under parentID (nil for the user's
// root). Files and directories share one namespace per directory, so
// the duplicate check counts both.
func (w *Writer) CreateDirectory(ctx context.Context, ownerID uint64, parentID *uint64, name string) error {
	if err := requireUser(ctx, w.users, ownerID); err != nil {
		return errors.WithStack(err)
	}
	if err := validateEntryName(name); err != nil {
		return errors.WithStack(err)
	}

	return w.entries.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := w.entries.CountSiblings(ctx, tx, ownerID, parentID, name)
		if err != nil {
			return errors.WithStack(err)
		}
		if count > 0 {
			return errors.WithStack(errDuplicateName(name))
		}

		if err := w.entries.Insert(ctx, tx, &model.Entry{
			OwnerID:     ownerID,
			ParentID:    parentID,
			Name:        name,
			IsDirectory: true,
		}); err != nil {
			// a creator that raced past the count check loses here on
			// the sibling-name unique index
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.WithStack(errDuplicateName(name))
			}
			return errors.WithStack(err)
		}

		return nil
	})
}

// Rename changes an entry's name, keeping its directory's namespace
// collision-free. The sibling set is recomputed inside the transaction
// so concurrent renames cannot both claim the same name.
func (w *Writer) Rename(ctx context.Context, ownerID, entryID uint64, newName string) error {
	if err := validateEntryName(newName); err != nil {
		return errors.WithStack(err)
	}

	return w.entries.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := w.entries.FindByID(ctx, tx, ownerID, entryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.WithStack(NewError(ErrCodeInvalidArguments,
					fmt.Sprintf("entry %d not found", entryID)))
			}
			return errors.WithStack(err)
		}

		if entry.Name == newName {
			return nil
		}

		count, err := w.entries.CountSiblings(ctx, tx, ownerID, entry.ParentID, newName)
		if err != nil {
			return errors.WithStack(err)
		}
		if count > 0 {
			return errors.WithStack(errDuplicateName(newName))
		}

		if err := w.entries.UpdateName(ctx, tx, ownerID, entryID, newName); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.WithStack(errDuplicateName(newName))
			}
			return errors.WithStack(err)
		}

		return nil
	})
}

// Delete removes the requested entries and, for directories, every
// descendant. The object-store batch delete runs before any metadata
// row is removed: a failed store delete aborts the transaction and
// leaves both stores untouched, so metadata never points at missing
// bytes. Orphaned store objects are the accepted failure direction.
func (w *Writer) Delete(ctx context.Context, ownerID uint64, entryIDs []uint64) error {
	logger := loggerFromCtx(ctx)

	return w.entries.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, err := w.entries.FindOwned(ctx, tx, ownerID, entryIDs)
		if err != nil {
			return errors.WithStack(err)
		}
		if len(entries) != len(entryIDs) {
			return errors.WithStack(NewError(ErrCodeInvalidArguments,
				"request references entries that do not exist or belong to another user"))
		}

		objectRefs := []string{}
		directoryIDs := []uint64{}
		for _, entry := range entries {
			if entry.IsDirectory {
				directoryIDs = append(directoryIDs, entry.ID)
				continue
			}
			objectRefs = append(objectRefs, entry.ObjectRef)
		}

		if len(directoryIDs) > 0 {
			nested, err := w.entries.CollectDescendantRefs(ctx, tx, ownerID, directoryIDs)
			if err != nil {
				return errors.WithStack(err)
			}
			objectRefs = append(objectRefs, nested...)
		}

		if err := w.objects.DeleteMany(ctx, objectRefs); err != nil {
			logger.Error("delete objects from store",
				zap.Error(err),
				zap.Uint64("user", ownerID),
				zap.Uint64s("entries", entryIDs))
			return errors.WithStack(NewError(ErrCodeUnspecified,
				fmt.Sprintf("failed to delete stored objects: %s", err)))
		}

		// cascade on parent_id removes all descendant rows with the tops
		return w.entries.DeleteByIDs(ctx, tx, ownerID, entryIDs)
	})
}
