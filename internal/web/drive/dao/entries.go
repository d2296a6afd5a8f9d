package dao

import (
	"context"

	errors "github.com/Laisky/errors/v2"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-drive/internal/web/drive/model"
)

// listChildrenOrder sorts listings newest first, largest first on ties.
const listChildrenOrder = "created_at DESC, size_bytes DESC"

// Entries queries and mutates the flat parent-pointer entry table.
//
// Mutating helpers take the transaction handle explicitly so the services
// can compose them inside a single transaction scope.
type Entries struct {
	db *gorm.DB
}

func NewEntries(db *gorm.DB) *Entries {
	return &Entries{db: db}
}

// DB returns the underlying handle for opening transactions.
func (d *Entries) DB() *gorm.DB {
	return d.db
}

// scopeParent constrains a query to one (owner, parent) directory scope.
func scopeParent(q *gorm.DB, ownerID uint64, parentID *uint64) *gorm.DB {
	q = q.Where("owner_id = ?", ownerID)
	if parentID == nil {
		return q.Where("parent_id IS NULL")
	}
	return q.Where("parent_id = ?", *parentID)
}

// CountSiblings counts entries named name in the (ownerID, parentID)
// scope, files and directories alike.
func (d *Entries) CountSiblings(ctx context.Context, tx *gorm.DB, ownerID uint64, parentID *uint64, name string) (int64, error) {
	var count int64
	err := scopeParent(tx.WithContext(ctx).Model(&model.Entry{}), ownerID, parentID).
		Where("name = ?", name).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrapf(err, "count entries named `%s`", name)
	}

	return count, nil
}

// FindOwned loads the requested entries that belong to ownerID. Missing
// or foreign ids simply shrink the result; the caller compares counts.
func (d *Entries) FindOwned(ctx context.Context, tx *gorm.DB, ownerID uint64, ids []uint64) ([]model.Entry, error) {
	var entries []model.Entry
	err := tx.WithContext(ctx).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "find owned entries")
	}

	return entries, nil
}

// FindByID loads a single owned entry.
func (d *Entries) FindByID(ctx context.Context, tx *gorm.DB, ownerID, id uint64) (*model.Entry, error) {
	entry := new(model.Entry)
	err := tx.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(entry).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find entry `%d`", id)
	}

	return entry, nil
}

// ListChildren returns the children of a directory (nil parentID means
// the owner's root), ordered for listing.
func (d *Entries) ListChildren(ctx context.Context, ownerID uint64, parentID *uint64) ([]model.Entry, error) {
	var entries []model.Entry
	err := scopeParent(d.db.WithContext(ctx), ownerID, parentID).
		Order(listChildrenOrder).
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "list children")
	}

	return entries, nil
}

// CollectDescendantRefs walks the subtrees under the given directory ids
// with a breadth-first worklist (no recursion, adversarially deep trees
// stay bounded) and returns the object refs of every nested file.
func (d *Entries) CollectDescendantRefs(ctx context.Context, tx *gorm.DB, ownerID uint64, directoryIDs []uint64) ([]string, error) {
	refs := []string{}
	// the worklist reuses its backing array, so it must not alias the
	// caller's slice
	frontier := append([]uint64{}, directoryIDs...)

	for len(frontier) > 0 {
		var children []model.Entry
		err := tx.WithContext(ctx).
			Where("owner_id = ? AND parent_id IN ?", ownerID, frontier).
			Find(&children).Error
		if err != nil {
			return nil, errors.Wrap(err, "load nested entries")
		}

		frontier = frontier[:0]
		for _, child := range children {
			if child.IsDirectory {
				frontier = append(frontier, child.ID)
				continue
			}
			refs = append(refs, child.ObjectRef)
		}
	}

	return refs, nil
}

// Insert creates a new entry row.
func (d *Entries) Insert(ctx context.Context, tx *gorm.DB, entry *model.Entry) error {
	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return errors.Wrapf(err, "insert entry `%s`", entry.Name)
	}

	return nil
}

// UpdateName renames a single owned entry.
func (d *Entries) UpdateName(ctx context.Context, tx *gorm.DB, ownerID, id uint64, newName string) error {
	ret := tx.WithContext(ctx).Model(&model.Entry{}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Update("name", newName)
	if ret.Error != nil {
		return errors.Wrapf(ret.Error, "rename entry `%d`", id)
	}
	if ret.RowsAffected == 0 {
		return errors.Errorf("entry `%d` not found", id)
	}

	return nil
}

// DeleteByIDs removes the owned top-level rows; the schema's parent-id
// cascade removes every descendant with them.
func (d *Entries) DeleteByIDs(ctx context.Context, tx *gorm.DB, ownerID uint64, ids []uint64) error {
	err := tx.WithContext(ctx).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Delete(&model.Entry{}).Error
	if err != nil {
		return errors.Wrap(err, "delete entries")
	}

	return nil
}
