package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCampaignLockMutualExclusion(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := NewCampaignLock(client, "c1", "holder-a")
	second := NewCampaignLock(client, "c1", "holder-b")
	other := NewCampaignLock(client, "c2", "holder-b")

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// 同一活动的锁互斥
	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// 不同活动互不影响
	ok, err = other.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, first.Unlock(ctx))

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnlockOnlyByHolder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	owner := NewCampaignLock(client, "c1", "holder-a")
	intruder := NewCampaignLock(client, "c1", "holder-b")

	ok, err := owner.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// 别人的解锁不生效，锁仍被持有
	_ = intruder.Unlock(ctx)

	ok, err = intruder.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLockRetry(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := NewCampaignLock(client, "c1", "holder-a")
	second := NewCampaignLock(client, "c1", "holder-b")

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// 持有者稍后释放，等锁方应在重试中拿到
	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = first.Unlock(context.Background())
	}()

	require.NoError(t, second.Lock(ctx, 10*time.Millisecond, 20))
	require.NoError(t, second.Unlock(ctx))
}

func TestPlatformLock(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := NewPlatformLock(client, "holder-a")
	second := NewPlatformLock(client, "holder-b")

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
