package service

import (
	"context"
	"io"
	"path"
	"time"

	errors "github.com/Laisky/errors/v2"
	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/semaphore"

	"github.com/Laisky/laisky-drive/internal/web/drive/model"
)

// archiveFetchConcurrency bounds how many object-store streams are
// opened ahead of the archive writer.
const archiveFetchConcurrency = 4

type fetchResult struct {
	rc  io.ReadCloser
	err error
}

// archiveItem is one archive entry in final append order. Files carry a
// ready channel fulfilled by a prefetch goroutine; directories are pure
// markers.
type archiveItem struct {
	path     string
	isDir    bool
	modified time.Time
	ready    chan fetchResult
}

type walkFrame struct {
	entry model.Entry
	dir   string
}

// writeArchive emits the selected subtrees into zw. The walker produces
// items in deterministic order (directory marker before its children,
// children in listing order) while object streams are prefetched
// concurrently up to archiveFetchConcurrency; the appender consumes
// strictly in walk order, so fetch concurrency never reorders entries.
func (t *Transporter) writeArchive(ctx context.Context, zw *zip.Writer, ownerID uint64, roots []model.Entry) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(archiveFetchConcurrency)
	items := make(chan *archiveItem, archiveFetchConcurrency)

	var walkErr error
	go func() {
		defer close(items)
		walkErr = t.walkTree(ctx, ownerID, roots, items, sem)
	}()

	if err := t.appendItems(zw, items, sem); err != nil {
		cancel()
		drainItems(items, sem)
		return errors.WithStack(err)
	}

	// items is closed here, so walkErr is settled
	return errors.WithStack(walkErr)
}

// walkTree traverses the flat parent-pointer table with an explicit
// stack, keeping depth bounded for adversarially deep trees.
func (t *Transporter) walkTree(ctx context.Context, ownerID uint64, roots []model.Entry, items chan<- *archiveItem, sem *semaphore.Weighted) error {
	stack := make([]walkFrame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, walkFrame{entry: roots[i]})
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entryPath := path.Join(frame.dir, frame.entry.Name)
		item := &archiveItem{
			path:     entryPath,
			isDir:    frame.entry.IsDirectory,
			modified: frame.entry.CreatedAt,
		}

		if frame.entry.IsDirectory {
			directoryID := frame.entry.ID
			children, err := t.entries.ListChildren(ctx, ownerID, &directoryID)
			if err != nil {
				return errors.WithStack(err)
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, walkFrame{entry: children[i], dir: entryPath})
			}
		} else {
			item.ready = make(chan fetchResult, 1)
			if err := sem.Acquire(ctx, 1); err != nil {
				return errors.WithStack(err)
			}
			go t.fetchObject(ctx, frame.entry.ObjectRef, item)
		}

		select {
		case items <- item:
		case <-ctx.Done():
			if item.ready != nil {
				// the prefetch for this item already started; reclaim
				// its stream before bailing out
				if res := <-item.ready; res.rc != nil {
					_ = res.rc.Close()
				}
				sem.Release(1)
			}
			return errors.WithStack(ctx.Err())
		}
	}

	return nil
}

// fetchObject opens one object stream for a pending archive item.
func (t *Transporter) fetchObject(ctx context.Context, objectRef string, item *archiveItem) {
	rc, err := t.objects.GetStream(ctx, objectRef)
	if err != nil {
		item.ready <- fetchResult{err: errors.Wrapf(err, "fetch object `%s`", objectRef)}
		return
	}
	if ctx.Err() != nil {
		// consumer already gone; release the stream instead of handing it over
		_ = rc.Close()
		item.ready <- fetchResult{err: errors.WithStack(ctx.Err())}
		return
	}

	item.ready <- fetchResult{rc: rc}
}

// appendItems writes items into the archive in arrival order.
func (t *Transporter) appendItems(zw *zip.Writer, items <-chan *archiveItem, sem *semaphore.Weighted) error {
	for item := range items {
		if item.isDir {
			// explicit marker, otherwise empty directories vanish from the archive
			if _, err := zw.CreateHeader(&zip.FileHeader{
				Name:     item.path + "/",
				Modified: item.modified,
			}); err != nil {
				return errors.Wrapf(err, "append directory `%s`", item.path)
			}
			continue
		}

		res := <-item.ready
		if res.err != nil {
			sem.Release(1)
			return errors.WithStack(res.err)
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     item.path,
			Method:   zip.Deflate,
			Modified: item.modified,
		})
		if err != nil {
			_ = res.rc.Close()
			sem.Release(1)
			return errors.Wrapf(err, "append file `%s`", item.path)
		}

		_, copyErr := io.Copy(w, res.rc)
		_ = res.rc.Close()
		sem.Release(1)
		if copyErr != nil {
			return errors.Wrapf(copyErr, "stream `%s` into archive", item.path)
		}
	}

	return nil
}

// drainItems releases streams of items the appender never reached.
func drainItems(items <-chan *archiveItem, sem *semaphore.Weighted) {
	for item := range items {
		if item.ready == nil {
			continue
		}
		res := <-item.ready
		if res.rc != nil {
			_ = res.rc.Close()
		}
		sem.Release(1)
	}
}
