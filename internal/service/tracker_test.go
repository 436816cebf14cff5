package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/set-night/captionbot/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestSessionTracker_Lifecycle(t *testing.T) {
	req := require.New(t)
	tracker := NewSessionTracker()

	req.False(tracker.IsWaiting("u1"), "unseen users are idle")
	req.Equal(domain.StateIdle, tracker.State("u1"))

	tracker.BeginWaiting("u1")
	req.True(tracker.IsWaiting("u1"))
	req.Equal(domain.StateAwaitingImage, tracker.State("u1"))
	req.False(tracker.IsWaiting("u2"), "state is per user")

	tracker.BeginWaiting("u1")
	req.True(tracker.IsWaiting("u1"), "arming twice keeps the state")

	tracker.Clear("u1")
	req.False(tracker.IsWaiting("u1"))

	tracker.Clear("u1")
	tracker.Clear("never-seen")
	req.False(tracker.IsWaiting("never-seen"))
	req.Equal(0, tracker.Len(), "idle users are not retained")
}

func TestSessionTracker_AcquireSerializesSameUser(t *testing.T) {
	tracker := NewSessionTracker()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := tracker.Acquire("u1")
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), maxInside)
	require.Equal(t, 0, tracker.Len())
}

func TestSessionTracker_AcquireDoesNotBlockOtherUsers(t *testing.T) {
	tracker := NewSessionTracker()

	release := tracker.Acquire("slow-user")
	defer release()

	done := make(chan struct{})
	go func() {
		other := tracker.Acquire("fast-user")
		tracker.BeginWaiting("fast-user")
		other()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("another user's turn was blocked")
	}
	require.True(t, tracker.IsWaiting("fast-user"))
}

func TestSessionTracker_ReleaseIsIdempotent(t *testing.T) {
	tracker := NewSessionTracker()

	release := tracker.Acquire("u1")
	tracker.BeginWaiting("u1")
	release()
	release()

	require.True(t, tracker.IsWaiting("u1"), "armed users are retained after release")

	again := tracker.Acquire("u1")
	tracker.Clear("u1")
	again()
	require.Equal(t, 0, tracker.Len())
}
