// Package lease serializes sync passes per root folder. A pass takes a
// short-lived redis lock before enumerating; overlapping webhook deliveries
// for the same root are skipped instead of racing the cursor.
package lease

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrHeld = errors.New("sync lease already held")

type Manager struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewManager(client redis.UniversalClient, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Manager{client: client, ttl: ttl}
}

func leaseKey(root string) string {
	return "sync:lease:" + root
}

// Acquire takes the lease for root and returns the holder token needed to
// release it. ErrHeld when another pass is running. The TTL bounds how long a
// crashed pass can block its root.
func (m *Manager) Acquire(ctx context.Context, root string) (string, error) {
	token := newToken()
	ok, err := m.client.SetNX(ctx, leaseKey(root), token, m.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire lease for %q: %w", root, err)
	}
	if !ok {
		return "", ErrHeld
	}
	return token, nil
}

// releaseScript deletes the lease only for its current holder, so a pass that
// outlived its TTL cannot release a lease re-acquired by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

func (m *Manager) Release(ctx context.Context, root, token string) error {
	return releaseScript.Run(ctx, m.client, []string{leaseKey(root)}, token).Err()
}

func newToken() string {
	src := rand.NewSource(time.Now().UnixNano() * 2)
	r := rand.New(src)

	str := strconv.Itoa(int(time.Now().UnixNano()))
	str += strconv.Itoa(r.Intn(65535))

	in := sha1.Sum([]byte(str))

	out := make([]byte, base64.StdEncoding.EncodedLen(len(in)))
	base64.StdEncoding.Encode(out, in[:])

	return string(out)
}
