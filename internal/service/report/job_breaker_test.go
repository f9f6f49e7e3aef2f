package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"habit-tracker/internal/mailer"
	"habit-tracker/internal/model"
	"habit-tracker/pkg/circuitbreaker"
)

// stubProvider 按收件人模拟服务商的响应
type stubProvider struct {
	mu       sync.Mutex
	rejected map[string]bool
	down     bool
	attempts []string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Send(_ context.Context, to, _, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts = append(p.attempts, to)
	if p.down {
		return errors.New("dial tcp: connection refused")
	}
	if p.rejected[to] {
		return &mailer.StatusError{Code: 400, Body: "invalid recipient"}
	}
	return nil
}

func (p *stubProvider) setDown(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.down = down
}

func (p *stubProvider) attempted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.attempts...)
}

func newUsers(n int) []model.User {
	users := make([]model.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, model.User{
			ID:    int64(i),
			Name:  fmt.Sprintf("user%d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
		})
	}
	return users
}

func newBreakerJob(users []model.User, store *fakeLogStore, m *mailer.Mailer) *Job {
	gen := NewGenerator(&fakeHabits{}, &fakeCheckIns{}, NewCalculator(time.UTC))
	return NewJob(&fakeUsers{users: users}, gen, NewGuard(store), &fakeLocker{}, m,
		JobConfig{Workers: 1}, time.UTC, zap.NewNop())
}

func TestJob_RejectedRecipientsDoNotBlockOthers(t *testing.T) {
	users := newUsers(8)
	provider := &stubProvider{rejected: map[string]bool{}}
	for _, u := range users[:5] {
		provider.rejected[u.Email] = true
	}
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig())
	store := newFakeLogStore()
	job := newBreakerJob(users, store, mailer.NewMailer(provider, breaker, zap.NewNop()))

	summary, err := job.RunFor(context.Background(), sunday)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Sent)
	assert.Equal(t, 5, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, circuitbreaker.StateClosed, breaker.GetState())
	assert.Len(t, provider.attempted(), 8)

	for _, u := range users[5:] {
		status, ok := store.status(u.ID, monday)
		require.True(t, ok)
		assert.Equal(t, model.ReportStatusSent, status, u.Email)
	}

	require.Len(t, store.events, 8)
	var failedPayloads int
	for _, ev := range store.events {
		if ev.status == model.ReportStatusFailed {
			failedPayloads++
		}
	}
	assert.Equal(t, 5, failedPayloads)
}

func TestJob_OpenCircuitDefersRemainingUsers(t *testing.T) {
	users := newUsers(4)
	provider := &stubProvider{down: true}
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		FailureThreshold:    2,
		SuccessThreshold:    1,
		Timeout:             time.Hour,
		HalfOpenMaxRequests: 1,
	})
	store := newFakeLogStore()
	job := newBreakerJob(users, store, mailer.NewMailer(provider, breaker, zap.NewNop()))

	summary, err := job.RunFor(context.Background(), sunday)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, []string{"user1@example.com", "user2@example.com"}, provider.attempted())

	// 熔断后的用户没有留下记录
	assert.Equal(t, 2, store.count())
	for _, u := range users[2:] {
		_, ok := store.status(u.ID, monday)
		assert.False(t, ok, u.Email)
	}

	provider.setDown(false)
	breaker.Reset()

	summary, err = job.RunFor(context.Background(), sunday)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 2, summary.Skipped)
	for _, u := range users[2:] {
		status, ok := store.status(u.ID, monday)
		require.True(t, ok)
		assert.Equal(t, model.ReportStatusSent, status, u.Email)
	}
	for _, u := range users[:2] {
		status, _ := store.status(u.ID, monday)
		assert.Equal(t, model.ReportStatusFailed, status, u.Email)
	}
}

func TestJob_DispatcherNotReadySkipsWithoutClaim(t *testing.T) {
	f := newJobFixture()
	f.mailer.down = true
	job := f.job(JobConfig{Workers: 2})

	summary, err := job.RunFor(context.Background(), sunday)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 0, f.store.count())
	assert.Empty(t, f.mailer.sentTo())
	assert.Equal(t, 3, f.locker.release)
}

func TestJob_CircuitOpenDuringSendReleasesClaim(t *testing.T) {
	f := newJobFixture()
	f.mailer.openFor = map[string]bool{"bob@example.com": true}
	job := f.job(JobConfig{Workers: 1})

	summary, err := job.RunFor(context.Background(), sunday)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 1, summary.Skipped)

	_, ok := f.store.status(2, monday)
	assert.False(t, ok)

	f.mailer.openFor = nil
	summary, err = job.RunFor(context.Background(), sunday)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.Contains(t, f.mailer.sentTo(), "bob@example.com")

	status, ok := f.store.status(2, monday)
	require.True(t, ok)
	assert.Equal(t, model.ReportStatusSent, status)
}
