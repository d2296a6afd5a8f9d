// Package dao is the data access layer of the drive: the relational
// entry tree and the remote object store.
package dao

import (
	"context"

	"github.com/Laisky/laisky-drive/internal/web/drive/model"
)

var (
	InstanceEntries *Entries
	InstanceUsers   *Users
	InstanceObjects *ObjectStore
)

func Initialize(ctx context.Context) {
	model.Initialize(ctx)

	InstanceEntries = NewEntries(model.DB)
	InstanceUsers = NewUsers(model.DB)
	InstanceObjects = NewObjectStoreFromSettings(ctx)
}
