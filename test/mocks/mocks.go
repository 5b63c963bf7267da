package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/account"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/apperr"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
	"github.com/google/uuid"
)

// AccountRepositoryMock is an in-memory AccountRepository. The *Fn fields, when
// set, replace the default behavior of the matching method.
type AccountRepositoryMock struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*account.Account
	calls    map[string]int

	CreateFn      func(ctx context.Context, a *account.Account) error
	FindByIDFn    func(ctx context.Context, id uuid.UUID) (*account.Account, error)
	FindByEmailFn func(ctx context.Context, email string) (*account.Account, error)
	UpdateFn      func(ctx context.Context, id uuid.UUID, fields account.UpdateFields) (*account.Account, error)
}

func NewAccountRepositoryMock() *AccountRepositoryMock {
	return &AccountRepositoryMock{
		accounts: make(map[uuid.UUID]*account.Account),
		calls:    make(map[string]int),
	}
}

var _ ports.AccountRepository = (*AccountRepositoryMock)(nil)

// Calls returns how many times method was invoked.
func (m *AccountRepositoryMock) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *AccountRepositoryMock) track(method string) {
	m.mu.Lock()
	m.calls[method]++
	m.mu.Unlock()
}

func clone(a *account.Account) *account.Account {
	c := *a
	return &c
}

func (m *AccountRepositoryMock) Create(ctx context.Context, a *account.Account) error {
	m.track("Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return apperr.Conflict("email already in use")
		}
	}
	m.accounts[a.ID] = clone(a)
	return nil
}

func (m *AccountRepositoryMock) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	m.track("FindByID")
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[id]; ok {
		return clone(a), nil
	}
	return nil, nil
}

func (m *AccountRepositoryMock) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	m.track("FindByEmail")
	if m.FindByEmailFn != nil {
		return m.FindByEmailFn(ctx, email)
	}
	email = account.NormalizeEmail(email)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, nil
}

func (m *AccountRepositoryMock) FindAll(ctx context.Context) ([]*account.Account, error) {
	m.track("FindAll")
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*account.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, clone(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *AccountRepositoryMock) Update(ctx context.Context, id uuid.UUID, fields account.UpdateFields) (*account.Account, error) {
	m.track("Update")
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, id, fields)
	}
	if fields.IsEmpty() {
		return nil, apperr.InvalidInput("At least one field must be provided to update the user.")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, apperr.NotFound("user", id.String())
	}
	if fields.Email != nil {
		email := account.NormalizeEmail(*fields.Email)
		for otherID, other := range m.accounts {
			if otherID != id && other.Email == email {
				return nil, apperr.Conflict("email already in use")
			}
		}
	}
	fields.Apply(a)
	a.UpdatedAt = time.Now().UTC()
	return clone(a), nil
}

func (m *AccountRepositoryMock) Delete(ctx context.Context, id uuid.UUID) error {
	m.track("Delete")
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return apperr.NotFound("user", id.String())
	}
	delete(m.accounts, id)
	return nil
}

// SentEmail records one delivered notification.
type SentEmail struct {
	To      string
	Kind    string
	Payload string
}

// NotificationSenderMock records outgoing emails.
type NotificationSenderMock struct {
	mu   sync.Mutex
	Sent []SentEmail

	SendVerificationEmailFn  func(ctx context.Context, to, code string) error
	SendPasswordResetEmailFn func(ctx context.Context, to, resetURL string) error
}

var _ ports.NotificationSender = (*NotificationSenderMock)(nil)

func (m *NotificationSenderMock) record(to, kind, payload string) {
	m.mu.Lock()
	m.Sent = append(m.Sent, SentEmail{To: to, Kind: kind, Payload: payload})
	m.mu.Unlock()
}

func (m *NotificationSenderMock) SendVerificationEmail(ctx context.Context, to, code string) error {
	if m.SendVerificationEmailFn != nil {
		if err := m.SendVerificationEmailFn(ctx, to, code); err != nil {
			return err
		}
	}
	m.record(to, "verification", code)
	return nil
}

func (m *NotificationSenderMock) SendPasswordResetEmail(ctx context.Context, to, resetURL string) error {
	if m.SendPasswordResetEmailFn != nil {
		if err := m.SendPasswordResetEmailFn(ctx, to, resetURL); err != nil {
			return err
		}
	}
	m.record(to, "password_reset", resetURL)
	return nil
}

// Last returns the most recent email of kind sent to to.
func (m *NotificationSenderMock) Last(to, kind string) (SentEmail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].To == to && m.Sent[i].Kind == kind {
			return m.Sent[i], true
		}
	}
	return SentEmail{}, false
}

// EventRecorderMock counts recorded account events.
type EventRecorderMock struct {
	mu     sync.Mutex
	counts map[ports.AccountEvent]int
}

var _ ports.AccountEventRecorder = (*EventRecorderMock)(nil)

func (m *EventRecorderMock) Record(event ports.AccountEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[ports.AccountEvent]int)
	}
	m.counts[event]++
}

func (m *EventRecorderMock) Count(event ports.AccountEvent) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[event]
}
