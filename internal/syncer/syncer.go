// Package syncer drives one resumable enumeration pass over the origin
// folder tree, routing every discovered file through classification and
// dispatch.
package syncer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/WebRendHQ/MaclellanFamily.com/internal/classifier"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/cursor"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/entities"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/origin"
)

type Origin interface {
	ListFolder(ctx context.Context, path string, recursive bool) (origin.ListResult, error)
	ListFolderContinue(ctx context.Context, cursor string) (origin.ListResult, error)
}

type CursorStore interface {
	Load(ctx context.Context, root string) (cursor.Record, error)
	Save(ctx context.Context, root, token string, expectedVersion int64) error
}

type Lease interface {
	Acquire(ctx context.Context, root string) (string, error)
	Release(ctx context.Context, root, token string) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, f entities.ClassifiedFile) error
}

// Options names one sync pass. Root is the canonical top-level prefix
// ("0 US"); OwnerFolder narrows the pass to one user's tree.
type Options struct {
	Root        string
	OwnerFolder string
	Recursive   bool
}

type Syncer struct {
	origin     Origin
	cursors    CursorStore
	lease      Lease
	classifier *classifier.Classifier
	dispatcher Dispatcher
}

func New(o Origin, cursors CursorStore, lease Lease, cls *classifier.Classifier, dispatcher Dispatcher) *Syncer {
	return &Syncer{
		origin:     o,
		cursors:    cursors,
		lease:      lease,
		classifier: cls,
		dispatcher: dispatcher,
	}
}

// Sync runs one pass: full listing when no cursor is stored, incremental
// continuation otherwise. The cursor is persisted only after the whole pass
// succeeds, so a failed pass re-processes from the last persisted point.
// Destination keys are deterministic, which makes that re-processing safe.
func (s *Syncer) Sync(ctx context.Context, opts Options) error {
	base := basePath(opts.Root, opts.OwnerFolder)

	leaseToken, err := s.lease.Acquire(ctx, base)
	if err != nil {
		return err
	}
	defer s.lease.Release(ctx, base, leaseToken)

	rec, err := s.cursors.Load(ctx, base)
	if err != nil {
		return err
	}

	cur := rec.Cursor
	hasMore := true

	if cur == "" {
		res, err := s.origin.ListFolder(ctx, base, opts.Recursive)
		if err != nil {
			return err
		}
		if err := s.processEntries(ctx, res.Entries); err != nil {
			return err
		}
		cur = res.Cursor
		hasMore = res.HasMore
	}

	for hasMore {
		res, err := s.origin.ListFolderContinue(ctx, cur)
		if err != nil {
			return err
		}
		if err := s.processEntries(ctx, res.Entries); err != nil {
			return err
		}
		cur = res.Cursor
		hasMore = res.HasMore
	}

	if err := s.cursors.Save(ctx, base, cur, rec.Version); err != nil {
		return err
	}

	log.Printf("[sync] pass complete for %s", base)
	return nil
}

func (s *Syncer) processEntries(ctx context.Context, entries []entities.RemoteEntry) error {
	for _, e := range entries {
		cf, ok := s.classifier.Classify(e)
		if !ok {
			continue
		}
		if err := s.dispatcher.Dispatch(ctx, cf); err != nil {
			return fmt.Errorf("dispatch %s: %w", cf.SourcePath, err)
		}
	}
	return nil
}

func basePath(root, ownerFolder string) string {
	parts := []string{strings.Trim(root, "/")}
	if owner := strings.Trim(ownerFolder, "/"); owner != "" {
		parts = append(parts, owner)
	}
	return "/" + strings.Join(parts, "/")
}
