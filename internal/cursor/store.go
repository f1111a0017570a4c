// Package cursor persists the enumeration resume token between sync passes.
// Records are versioned and written with a compare-and-swap so two passes
// racing over the same root cannot silently clobber each other's cursor.
package cursor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrConflict means the stored record changed since it was loaded; the caller
// should rerun the pass from the fresh cursor.
var ErrConflict = errors.New("cursor was updated by a concurrent sync pass")

// Record is the stored cursor plus its write version. A zero Record means no
// pass has completed for the root yet.
type Record struct {
	Cursor  string `json:"cursor"`
	Version int64  `json:"version"`
}

type Store struct {
	rdb       redis.UniversalClient
	namespace string
}

func NewStore(namespace string, rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb, namespace: namespace}
}

func (s *Store) key(root string) string {
	return s.namespace + ":" + root
}

// saveScript swaps the record only if the stored version still matches the
// one the pass started from. Missing record counts as version 0.
var saveScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
local ver = 0
if raw then
  ver = cjson.decode(raw)["version"]
end
if ver ~= tonumber(ARGV[1]) then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2])
return 1
`)

func (s *Store) Load(ctx context.Context, root string) (Record, error) {
	raw, err := s.rdb.Get(ctx, s.key(root)).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("load cursor for %q: %w", root, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, fmt.Errorf("decode cursor for %q: %w", root, err)
	}
	return rec, nil
}

func (s *Store) Save(ctx context.Context, root, token string, expectedVersion int64) error {
	next, err := json.Marshal(Record{Cursor: token, Version: expectedVersion + 1})
	if err != nil {
		return err
	}

	ok, err := saveScript.Run(ctx, s.rdb, []string{s.key(root)}, expectedVersion, string(next)).Int()
	if err != nil {
		return fmt.Errorf("save cursor for %q: %w", root, err)
	}
	if ok == 0 {
		return ErrConflict
	}
	return nil
}
