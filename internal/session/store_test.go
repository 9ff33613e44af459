package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shopkit/shopkit-payments/internal/domain"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s := New(ttl)
	t.Cleanup(s.Close)
	return s
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t, time.Minute)

	id := s.Create(&domain.PaymentAttempt{AttemptID: "a1", State: domain.StateAwaitingBrowserInfo})
	require.NotEmpty(t, id)

	attempt := s.Get(id)
	require.NotNil(t, attempt)
	require.Equal(t, "a1", attempt.AttemptID)
}

func TestGet_ReturnsSnapshot(t *testing.T) {
	s := newTestStore(t, time.Minute)
	id := s.Create(&domain.PaymentAttempt{State: domain.StateAwaitingBrowserInfo})

	snapshot := s.Get(id)
	snapshot.State = domain.StateDeclined

	require.Equal(t, domain.StateAwaitingBrowserInfo, s.Get(id).State)
}

func TestGet_UnknownSession(t *testing.T) {
	s := newTestStore(t, time.Minute)
	require.Nil(t, s.Get("missing"))
}

func TestTTLExpiry(t *testing.T) {
	s := newTestStore(t, time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	id := s.Create(&domain.PaymentAttempt{AttemptID: "a1"})
	require.NotNil(t, s.Get(id))

	now = now.Add(time.Minute + time.Second)
	require.Nil(t, s.Get(id))
	require.ErrorIs(t, s.Update(id, func(*domain.PaymentAttempt) error { return nil }), domain.ErrSessionNotFound)
}

func TestPut_RestartsTTL(t *testing.T) {
	s := newTestStore(t, time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	id := s.Create(&domain.PaymentAttempt{AttemptID: "a1"})
	now = now.Add(50 * time.Second)
	s.Put(id, &domain.PaymentAttempt{AttemptID: "a2"})

	now = now.Add(50 * time.Second)
	attempt := s.Get(id)
	require.NotNil(t, attempt)
	require.Equal(t, "a2", attempt.AttemptID)
}

func TestUpdate_Atomic(t *testing.T) {
	s := newTestStore(t, time.Minute)
	id := s.Create(&domain.PaymentAttempt{})

	// Concurrent increments through Update must not lose writes.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(id, func(a *domain.PaymentAttempt) error {
				a.Cart = append(a.Cart, domain.CartItem{Quantity: 1})
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, s.Get(id).Cart, 50)
}

func TestUpdate_SerializesPerSession(t *testing.T) {
	s := newTestStore(t, time.Minute)
	id := s.Create(&domain.PaymentAttempt{State: domain.StateAwaitingBrowserInfo})

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan domain.FlowState, 1)

	go func() {
		_ = s.Update(id, func(a *domain.PaymentAttempt) error {
			close(entered)
			<-release
			a.State = domain.StateAwaitingChallengeResult
			return nil
		})
	}()

	<-entered
	go func() {
		_ = s.Update(id, func(a *domain.PaymentAttempt) error {
			done <- a.State
			return nil
		})
	}()

	// The second update cannot observe the attempt mid-step.
	select {
	case <-done:
		t.Fatal("second update ran before the first released the session")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.Equal(t, domain.StateAwaitingChallengeResult, <-done)
}

func TestClear(t *testing.T) {
	s := newTestStore(t, time.Minute)
	id := s.Create(&domain.PaymentAttempt{})
	s.Clear(id)
	require.Nil(t, s.Get(id))
}
