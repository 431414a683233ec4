package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserLocks_SerializesSameUser(t *testing.T) {
	locks := newUserLocks()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.lock("user-1")
			defer release()

			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
	assert.Equal(t, 0, locks.size())
}

func TestUserLocks_IndependentUsers(t *testing.T) {
	locks := newUserLocks()

	releaseA := locks.lock("user-a")
	done := make(chan struct{})
	go func() {
		release := locks.lock("user-b")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another user blocked")
	}

	assert.Equal(t, 1, locks.size())
	releaseA()
	assert.Equal(t, 0, locks.size())
}
