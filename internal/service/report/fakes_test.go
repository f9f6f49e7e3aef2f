package report

import (
	"context"
	"errors"
	"sync"
	"time"

	mqcontracts "habit-tracker/contracts/mq"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/pkg/circuitbreaker"
)

type fakeUsers struct {
	users []model.User
	err   error
}

func (f *fakeUsers) ListAll(context.Context) ([]model.User, error) {
	return f.users, f.err
}

type fakeHabits struct {
	byUser map[int64][]model.Habit
	err    error
}

func (f *fakeHabits) ListByUser(_ context.Context, userID int64) ([]model.Habit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Habit(nil), f.byUser[userID]...), nil
}

type rangeCall struct {
	habitID  int64
	from, to model.Date
}

type fakeCheckIns struct {
	mu      sync.Mutex
	byHabit map[int64][]model.Date
	calls   []rangeCall
}

func (f *fakeCheckIns) ListDatesInRange(_ context.Context, habitID int64, from, to model.Date) ([]model.Date, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rangeCall{habitID: habitID, from: from, to: to})

	var out []model.Date
	for _, d := range f.byHabit[habitID] {
		if !d.Before(from.Time) && !d.After(to.Time) {
			out = append(out, d)
		}
	}
	return out, nil
}

type logKey struct {
	userID int64
	week   string
}

type finalized struct {
	status model.ReportStatus
	event  mqcontracts.Event
}

// fakeLogStore 内存版 report_logs，模拟唯一索引和 pending 条件更新
type fakeLogStore struct {
	mu          sync.Mutex
	nextID      int64
	logs        map[logKey]*model.ReportLog
	events      []finalized
	existsErr   error
	finalizeErr error
}

func newFakeLogStore() *fakeLogStore {
	return &fakeLogStore{logs: make(map[logKey]*model.ReportLog)}
}

func (f *fakeLogStore) Exists(_ context.Context, userID int64, weekStart model.Date) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.logs[logKey{userID, weekStart.String()}]
	return ok, nil
}

func (f *fakeLogStore) Claim(_ context.Context, userID int64, weekStart model.Date, at time.Time) (*model.ReportLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := logKey{userID, weekStart.String()}
	if _, ok := f.logs[key]; ok {
		return nil, repository.ErrDuplicate
	}
	f.nextID++
	l := &model.ReportLog{
		ID:          f.nextID,
		UserID:      userID,
		WeekStart:   weekStart,
		GeneratedAt: at,
		Status:      model.ReportStatusPending,
	}
	f.logs[key] = l
	cp := *l
	return &cp, nil
}

func (f *fakeLogStore) Finalize(_ context.Context, l *model.ReportLog, status model.ReportStatus, ev mqcontracts.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	stored, ok := f.logs[logKey{l.UserID, l.WeekStart.String()}]
	if !ok || stored.ID != l.ID || stored.Status != model.ReportStatusPending {
		return repository.ErrNotPending
	}
	stored.Status = status
	l.Status = status
	f.events = append(f.events, finalized{status: status, event: ev})
	return nil
}

func (f *fakeLogStore) Abandon(_ context.Context, l *model.ReportLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := logKey{l.UserID, l.WeekStart.String()}
	stored, ok := f.logs[key]
	if !ok || stored.ID != l.ID || stored.Status != model.ReportStatusPending {
		return repository.ErrNotPending
	}
	delete(f.logs, key)
	return nil
}

func (f *fakeLogStore) status(userID int64, weekStart model.Date) (model.ReportStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.logs[logKey{userID, weekStart.String()}]
	if !ok {
		return "", false
	}
	return l.Status, true
}

func (f *fakeLogStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.logs)
}

type fakeLocker struct {
	mu      sync.Mutex
	deny    map[int64]bool
	held    map[int64]bool
	release int
}

func (f *fakeLocker) Acquire(_ context.Context, userID int64, _ time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deny[userID] {
		return false
	}
	if f.held == nil {
		f.held = make(map[int64]bool)
	}
	f.held[userID] = true
	return true
}

func (f *fakeLocker) Release(_ context.Context, userID int64, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, userID)
	f.release++
}

type sentMail struct {
	to, subject, body string
}

var errMailDown = errors.New("smtp: connection refused")

type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]bool
	panics map[string]bool
	down   bool

	// openFor 模拟检查通过后熔断才打开
	openFor map[string]bool
}

func (f *fakeMailer) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.down
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if f.panics[to] {
		panic("mailer exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTo[to] {
		return errMailDown
	}
	if f.openFor[to] {
		return circuitbreaker.ErrCircuitBreakerOpen
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (f *fakeMailer) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.to)
	}
	return out
}
