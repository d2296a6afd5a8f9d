package dao

import (
	"context"
	"fmt"
	"testing"
	"time"

	errors "github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-drive/internal/web/drive/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s-%d?mode=memory&cache=shared&_fk=1",
		t.Name(), time.Now().UTC().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, model.Migrate(context.Background(), db))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := &model.User{Email: email, PasswordHash: []byte("x")}
	require.NoError(t, db.Create(user).Error)

	return user
}

func TestInsertEnforcesSiblingNameUniqueness(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	d := NewEntries(db)
	ctx := context.Background()
	alice := seedUser(t, db, "unique-alice@example.com")
	bob := seedUser(t, db, "unique-bob@example.com")

	docs := &model.Entry{OwnerID: alice.ID, Name: "docs", IsDirectory: true}
	require.NoError(t, d.Insert(ctx, db, docs))

	// the schema itself rejects a second root entry named docs, file or
	// directory alike
	err := d.Insert(ctx, db, &model.Entry{OwnerID: alice.ID, Name: "docs", ObjectRef: "r1"})
	require.Error(t, err)
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))

	// the same name is free under a different parent and for another owner
	nested := &model.Entry{OwnerID: alice.ID, ParentID: &docs.ID, Name: "docs", IsDirectory: true}
	require.NoError(t, d.Insert(ctx, db, nested))
	require.NoError(t, d.Insert(ctx, db, &model.Entry{OwnerID: bob.ID, Name: "docs", IsDirectory: true}))

	// and taken again inside that nested scope
	err = d.Insert(ctx, db, &model.Entry{OwnerID: alice.ID, ParentID: &docs.ID, Name: "docs", ObjectRef: "r2"})
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestCollectDescendantRefsLeavesInputUntouched(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	d := NewEntries(db)
	ctx := context.Background()
	user := seedUser(t, db, "aliasing@example.com")

	top := &model.Entry{OwnerID: user.ID, Name: "top", IsDirectory: true}
	require.NoError(t, d.Insert(ctx, db, top))
	sub := &model.Entry{OwnerID: user.ID, ParentID: &top.ID, Name: "sub", IsDirectory: true}
	require.NoError(t, d.Insert(ctx, db, sub))
	require.NoError(t, d.Insert(ctx, db, &model.Entry{
		OwnerID: user.ID, ParentID: &sub.ID, Name: "leaf.txt", ObjectRef: "leaf-ref",
	}))

	ids := []uint64{top.ID}
	refs, err := d.CollectDescendantRefs(ctx, db, user.ID, ids)
	require.NoError(t, err)
	require.Equal(t, []string{"leaf-ref"}, refs)

	// the walk must not scribble over the caller's id slice
	require.Equal(t, []uint64{top.ID}, ids)
}

func TestCollectDescendantRefsWalksDeepTrees(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	d := NewEntries(db)
	ctx := context.Background()
	user := seedUser(t, db, "deep@example.com")

	// a directory chain far deeper than any recursive walk should
	// tolerate, with one file hanging off every level
	const depth = 200
	want := make([]string, 0, depth)
	var parent *uint64
	var topID uint64
	for i := 0; i < depth; i++ {
		dir := &model.Entry{
			OwnerID:     user.ID,
			ParentID:    parent,
			Name:        fmt.Sprintf("level-%d", i),
			IsDirectory: true,
		}
		require.NoError(t, d.Insert(ctx, db, dir))
		if i == 0 {
			topID = dir.ID
		}

		ref := fmt.Sprintf("ref-%d", i)
		require.NoError(t, d.Insert(ctx, db, &model.Entry{
			OwnerID:   user.ID,
			ParentID:  &dir.ID,
			Name:      fmt.Sprintf("file-%d", i),
			ObjectRef: ref,
			SizeBytes: 1,
		}))
		want = append(want, ref)

		id := dir.ID
		parent = &id
	}

	refs, err := d.CollectDescendantRefs(ctx, db, user.ID, []uint64{topID})
	require.NoError(t, err)
	require.ElementsMatch(t, want, refs)
}

func TestCollectDescendantRefsSkipsForeignSubtrees(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	d := NewEntries(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")

	dir := &model.Entry{OwnerID: alice.ID, Name: "shared-name", IsDirectory: true}
	require.NoError(t, d.Insert(ctx, db, dir))
	require.NoError(t, d.Insert(ctx, db, &model.Entry{
		OwnerID: alice.ID, ParentID: &dir.ID, Name: "mine.txt", ObjectRef: "mine-ref",
	}))

	other := &model.Entry{OwnerID: bob.ID, Name: "other", IsDirectory: true}
	require.NoError(t, d.Insert(ctx, db, other))
	require.NoError(t, d.Insert(ctx, db, &model.Entry{
		OwnerID: bob.ID, ParentID: &other.ID, Name: "theirs.txt", ObjectRef: "theirs-ref",
	}))

	refs, err := d.CollectDescendantRefs(ctx, db, alice.ID, []uint64{dir.ID})
	require.NoError(t, err)
	require.Equal(t, []string{"mine-ref"}, refs)
}

func TestCountSiblingsScopesParent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	d := NewEntries(db)
	ctx := context.Background()
	user := seedUser(t, db, "siblings@example.com")

	dir := &model.Entry{OwnerID: user.ID, Name: "docs", IsDirectory: true}
	require.NoError(t, d.Insert(ctx, db, dir))
	require.NoError(t, d.Insert(ctx, db, &model.Entry{
		OwnerID: user.ID, ParentID: &dir.ID, Name: "report.txt", ObjectRef: "r1",
	}))

	// same name at root is free, inside docs it is taken
	count, err := d.CountSiblings(ctx, db, user.ID, nil, "report.txt")
	require.NoError(t, err)
	require.EqualValues(t, 0, count)

	count, err = d.CountSiblings(ctx, db, user.ID, &dir.ID, "report.txt")
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestUpdateNameRequiresOwnedRow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	d := NewEntries(db)
	ctx := context.Background()
	user := seedUser(t, db, "updname@example.com")

	dir := &model.Entry{OwnerID: user.ID, Name: "before", IsDirectory: true}
	require.NoError(t, d.Insert(ctx, db, dir))

	require.NoError(t, d.UpdateName(ctx, db, user.ID, dir.ID, "after"))

	got, err := d.FindByID(ctx, db, user.ID, dir.ID)
	require.NoError(t, err)
	require.Equal(t, "after", got.Name)

	require.Error(t, d.UpdateName(ctx, db, user.ID+1, dir.ID, "stolen"))
	require.Error(t, d.UpdateName(ctx, db, user.ID, dir.ID+999, "ghost"))
}

func TestDeleteByIDsCascades(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	d := NewEntries(db)
	ctx := context.Background()
	user := seedUser(t, db, "dbcascade@example.com")

	dir := &model.Entry{OwnerID: user.ID, Name: "top", IsDirectory: true}
	require.NoError(t, d.Insert(ctx, db, dir))
	sub := &model.Entry{OwnerID: user.ID, ParentID: &dir.ID, Name: "sub", IsDirectory: true}
	require.NoError(t, d.Insert(ctx, db, sub))
	require.NoError(t, d.Insert(ctx, db, &model.Entry{
		OwnerID: user.ID, ParentID: &sub.ID, Name: "leaf.txt", ObjectRef: "leaf-ref",
	}))

	require.NoError(t, d.DeleteByIDs(ctx, db, user.ID, []uint64{dir.ID}))

	var count int64
	require.NoError(t, db.Model(&model.Entry{}).
		Where("owner_id = ?", user.ID).
		Count(&count).Error)
	require.EqualValues(t, 0, count)
}
