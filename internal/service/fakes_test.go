package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/repository"
)

// =============================================================================
// IN-MEMORY LESSON INDEX
// =============================================================================
//
// memIndex behaves like one lesson table. The fail* fields make the next
// matching call return an error so the two-index protocol can be exercised.
// beforePut runs ahead of every Put, outside the index lock, so a test can
// hold a mirror write in flight.

var errInjected = errors.New("injected failure")

type memIndex struct {
	name string

	mu   sync.Mutex
	rows map[string]*model.Lesson

	failInsert error
	failPut    error
	failDelete error

	beforePut func(l *model.Lesson)
}

func newMemIndex(name string) *memIndex {
	return &memIndex{name: name, rows: map[string]*model.Lesson{}}
}

func (m *memIndex) Name() string { return m.name }

func (m *memIndex) Insert(_ context.Context, l *model.Lesson) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert != nil {
		return m.failInsert
	}
	if _, ok := m.rows[l.ID]; ok {
		return errors.New("duplicate id")
	}
	m.rows[l.ID] = l.Clone()
	return nil
}

func (m *memIndex) Get(_ context.Context, id string) (*model.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return nil, model.ErrLessonNotFound
	}
	return l.Clone(), nil
}

func (m *memIndex) Put(_ context.Context, l *model.Lesson) error {
	if m.beforePut != nil {
		m.beforePut(l)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return m.failPut
	}
	m.rows[l.ID] = l.Clone()
	return nil
}

func (m *memIndex) Mutate(_ context.Context, id string, fn repository.MutateFunc) (*model.Lesson, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, false, model.ErrLessonNotFound
	}
	l := row.Clone()
	changed, err := fn(l)
	if err != nil {
		return nil, false, err
	}
	if !changed {
		return l, false, nil
	}
	l.UpdatedAt = time.Now().UTC()
	m.rows[id] = l.Clone()
	return l, true, nil
}

func (m *memIndex) Delete(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return 0, m.failDelete
	}
	if _, ok := m.rows[id]; !ok {
		return 0, nil
	}
	delete(m.rows, id)
	return 1, nil
}

func (m *memIndex) List(_ context.Context, q model.LessonQuery) ([]model.Lesson, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.filter(q)
	if q.Limit > 0 {
		if q.Offset >= len(out) {
			return []model.Lesson{}, nil
		}
		end := q.Offset + q.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[q.Offset:end]
	}
	return out, nil
}

func (m *memIndex) Count(_ context.Context, q model.LessonQuery) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filter(q)), nil
}

func (m *memIndex) filter(q model.LessonQuery) []model.Lesson {
	out := []model.Lesson{}
	for _, l := range m.rows {
		if q.Visibility != "" && l.Visibility != q.Visibility {
			continue
		}
		if q.Category != "" && l.Category != q.Category {
			continue
		}
		if q.CreatorEmail != "" && l.Creator.Email != q.CreatorEmail {
			continue
		}
		if q.FavoritedBy != "" && !l.IsFavoritedBy(q.FavoritedBy) {
			continue
		}
		if q.ReportedOnly && !l.IsReported {
			continue
		}
		out = append(out, *l.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memIndex) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memIndex) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	return ok
}

func (m *memIndex) snapshot() map[string]*model.Lesson {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*model.Lesson, len(m.rows))
	for id, l := range m.rows {
		out[id] = l.Clone()
	}
	return out
}

func (m *memIndex) restore(rows map[string]*model.Lesson) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
}

// memTx is a repository.LessonTxRunner over two memIndexes. Transactions run
// one at a time and an error restores both indexes to their state before it.
type memTx struct {
	mu            sync.Mutex
	public, owner *memIndex
}

func (m *memTx) InTx(_ context.Context, fn func(public, owner repository.LessonIndex) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pub, own := m.public.snapshot(), m.owner.snapshot()
	if err := fn(m.public, m.owner); err != nil {
		m.public.restore(pub)
		m.owner.restore(own)
		return err
	}
	return nil
}

// =============================================================================
// IN-MEMORY ACCOUNT REPOSITORY
// =============================================================================

type memAccounts struct {
	mu    sync.Mutex
	byUID map[string]*model.Account

	updateProfileCalls int
}

func newMemAccounts(accounts ...*model.Account) *memAccounts {
	m := &memAccounts{byUID: map[string]*model.Account{}}
	for _, a := range accounts {
		c := *a
		m.byUID[a.UID] = &c
	}
	return m
}

func (m *memAccounts) Create(_ context.Context, a *model.Account) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUID[a.UID]; ok {
		return false, nil
	}
	for _, existing := range m.byUID {
		if existing.Email == a.Email {
			return false, model.ErrEmailTaken
		}
	}
	a.UpdatedAt = a.CreatedAt
	c := *a
	m.byUID[a.UID] = &c
	return true, nil
}

func (m *memAccounts) GetByUID(_ context.Context, uid string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byUID[uid]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	c := *a
	return &c, nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byUID {
		if a.Email == email {
			c := *a
			return &c, nil
		}
	}
	return nil, model.ErrAccountNotFound
}

func (m *memAccounts) UpdateProfile(_ context.Context, uid, name, photoURL string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateProfileCalls++
	a, ok := m.byUID[uid]
	if !ok {
		return 0, nil
	}
	a.Name, a.PhotoURL = name, photoURL
	return 1, nil
}

func (m *memAccounts) Patch(_ context.Context, email string, patch model.AccountPatch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byUID {
		if a.Email != email {
			continue
		}
		if patch.Role != nil {
			a.Role = *patch.Role
		}
		if patch.IsPremium != nil {
			a.IsPremium = *patch.IsPremium
		}
		return 1, nil
	}
	return 0, nil
}

func (m *memAccounts) Delete(_ context.Context, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for uid, a := range m.byUID {
		if a.Email == email {
			delete(m.byUID, uid)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memAccounts) List(_ context.Context) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Account{}
	for _, a := range m.byUID {
		out = append(out, *a)
	}
	return out, nil
}

// =============================================================================
// OTHER FAKES
// =============================================================================

type memLessonReports struct {
	mu      sync.Mutex
	reports []model.LessonReport
}

func (m *memLessonReports) Create(_ context.Context, r *model.LessonReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, *r)
	return nil
}

func (m *memLessonReports) ListByLesson(_ context.Context, lessonID string) ([]model.LessonReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.LessonReport{}
	for _, r := range m.reports {
		if r.LessonID == lessonID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memLessonReports) DeleteByLesson(_ context.Context, lessonID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.reports[:0]
	for _, r := range m.reports {
		if r.LessonID != lessonID {
			kept = append(kept, r)
		}
	}
	m.reports = kept
	return nil
}

// recordingProfiles records identity-provider profile updates.
type recordingProfiles struct {
	calls []string
	err   error
}

func (p *recordingProfiles) UpdateProfile(_ context.Context, uid, name, _ string) error {
	p.calls = append(p.calls, uid+":"+name)
	return p.err
}

// memDeduper is a map-backed cache.Deduper.
type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memDeduper) FirstSeen(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func (d *memDeduper) Forget(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
	return nil
}
