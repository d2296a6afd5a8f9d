package service

import (
	"context"

	errors "github.com/Laisky/errors/v2"
	"github.com/jinzhu/copier"

	"github.com/Laisky/laisky-drive/internal/web/drive/dao"
	"github.com/Laisky/laisky-drive/internal/web/drive/dto"
)

// Reader lists the entry tree. Read-only; transport errors are the
// caller's to retry.
type Reader struct {
	entries *dao.Entries
}

func NewReader(entries *dao.Entries) *Reader {
	return &Reader{entries: entries}
}

// ListChildren returns the children of a directory (nil for the user's
// root), newest first with size as tie-break.
func (r *Reader) ListChildren(ctx context.Context, ownerID uint64, parentID *uint64) ([]dto.EntryItem, error) {
	entries, err := r.entries.ListChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	items := make([]dto.EntryItem, 0, len(entries))
	if err := copier.Copy(&items, &entries); err != nil {
		return nil, errors.Wrap(err, "project entries")
	}

	return items, nil
}
