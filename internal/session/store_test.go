package session

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/autodesign/internal/cache"
)

// heldLocks reports how many session ids currently have a lock entry.
func (s *Store) heldLocks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func TestUpdate_OtherSessionsDoNotWait(t *testing.T) {
	ctx := context.Background()
	st := NewStore(cache.NewMemoryCache(), time.Hour, 0)

	entered := make(chan struct{})
	release := make(chan struct{})
	held := make(chan error, 1)
	go func() {
		_, err := st.Update(ctx, "session-a", func(*Session) error {
			close(entered)
			<-release
			return nil
		})
		held <- err
	}()
	<-entered

	// No id may share session-a's lock, however it hashes.
	for i := 0; i < 500; i++ {
		done := make(chan error, 1)
		id := "session-b-" + strconv.Itoa(i)
		go func() {
			_, err := st.Update(ctx, id, func(*Session) error { return nil })
			done <- err
		}()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatalf("update of %s blocked behind session-a", id)
		}
	}

	close(release)
	require.NoError(t, <-held)
	assert.Zero(t, st.heldLocks())
}

func TestUpdate_SameSessionWaits(t *testing.T) {
	ctx := context.Background()
	st := NewStore(cache.NewMemoryCache(), time.Hour, 0)

	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = st.Update(ctx, "s", func(*Session) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		_, _ = st.Update(ctx, "s", func(*Session) error { return nil })
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second update of the same session ran while the first held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second update never ran")
	}
	assert.Zero(t, st.heldLocks())
}

func TestUpdate_LockEntriesReleased(t *testing.T) {
	ctx := context.Background()
	st := NewStore(cache.NewMemoryCache(), time.Hour, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "s-" + strconv.Itoa(i%5)
			_, err := st.Update(ctx, id, func(s *Session) error {
				s.Polls++
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Zero(t, st.heldLocks())
}
