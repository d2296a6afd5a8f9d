package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	errors "github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-drive/internal/web/drive/dao"
	"github.com/Laisky/laisky-drive/internal/web/drive/model"
)

// newTestDB creates an in-memory sqlite database with foreign keys
// enforced, so the parent-id cascade behaves like production postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s-%d?mode=memory&cache=shared&_fk=1",
		t.Name(), time.Now().UTC().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, model.Migrate(context.Background(), db))

	return db
}

// fakeGateway is an in-memory object store that records every call.
type fakeGateway struct {
	mu sync.Mutex

	objects     map[string][]byte
	putSeq      int
	deleteCalls [][]string

	failPut    bool
	failDelete bool
	failStream map[string]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		objects:    map[string][]byte{},
		failStream: map[string]bool{},
	}
}

func (g *fakeGateway) Put(_ context.Context, r io.Reader, _ int64, ownerID uint64, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failPut {
		return "", errors.New("object store rejected the write")
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return "", errors.WithStack(err)
	}

	g.putSeq++
	ref := fmt.Sprintf("%d/object-%d", ownerID, g.putSeq)
	g.objects[ref] = payload
	return ref, nil
}

func (g *fakeGateway) GetStream(_ context.Context, objectRef string) (io.ReadCloser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failStream[objectRef] {
		return nil, errors.Errorf("object `%s` unavailable", objectRef)
	}

	payload, ok := g.objects[objectRef]
	if !ok {
		return nil, errors.Errorf("object `%s` not found", objectRef)
	}

	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (g *fakeGateway) DeleteMany(_ context.Context, objectRefs []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failDelete {
		return errors.New("object store rejected the delete")
	}

	g.deleteCalls = append(g.deleteCalls, append([]string{}, objectRefs...))
	for _, ref := range objectRefs {
		delete(g.objects, ref)
	}

	return nil
}

func (g *fakeGateway) PresignedURL(_ context.Context, objectRef string, _ time.Duration) (string, error) {
	return "https://store.example.test/" + objectRef + "?signed=1", nil
}

// fixture bundles the services over one in-memory database and one
// fake object store.
type fixture struct {
	db          *gorm.DB
	gateway     *fakeGateway
	writer      *Writer
	reader      *Reader
	transporter *Transporter
	auth        *Auth
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	entries := dao.NewEntries(db)
	users := dao.NewUsers(db)
	gateway := newFakeGateway()

	return &fixture{
		db:          db,
		gateway:     gateway,
		writer:      NewWriter(entries, users, gateway),
		reader:      NewReader(entries),
		transporter: NewTransporter(entries, users, gateway),
		auth:        NewAuth(users),
	}
}

func (f *fixture) seedUser(t *testing.T, email string) *model.User {
	t.Helper()

	user := &model.User{
		Email:        email,
		DisplayName:  "tester",
		PasswordHash: []byte("x"),
	}
	require.NoError(t, f.db.Create(user).Error)

	return user
}

// findEntry loads an owned entry by name, failing the test on ambiguity.
func (f *fixture) findEntry(t *testing.T, ownerID uint64, name string) *model.Entry {
	t.Helper()

	var entries []model.Entry
	require.NoError(t, f.db.
		Where("owner_id = ? AND name = ?", ownerID, name).
		Find(&entries).Error)
	require.Len(t, entries, 1, "entry `%s`", name)

	return &entries[0]
}

func (f *fixture) countEntries(t *testing.T, ownerID uint64) int64 {
	t.Helper()

	var count int64
	require.NoError(t, f.db.Model(&model.Entry{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error)

	return count
}

func (f *fixture) uploadFile(t *testing.T, ownerID uint64, parentID *uint64, name string, payload []byte) *model.Entry {
	t.Helper()

	require.NoError(t, f.transporter.Upload(context.Background(),
		ownerID, parentID, name, bytes.NewReader(payload), int64(len(payload)), "application/octet-stream"))

	return f.findEntry(t, ownerID, name)
}

func (f *fixture) createDirectory(t *testing.T, ownerID uint64, parentID *uint64, name string) *model.Entry {
	t.Helper()

	require.NoError(t, f.writer.CreateDirectory(context.Background(), ownerID, parentID, name))

	return f.findEntry(t, ownerID, name)
}
