package service

import (
	"sync"
	"time"

	"github.com/ivanoskov/finance_dashboard/internal/alerts"
	"github.com/ivanoskov/finance_dashboard/internal/analytics"
	"github.com/ivanoskov/finance_dashboard/internal/model"
)

// Snapshot - производное состояние дашборда пользователя.
// Всегда строится целиком из сырых данных и никогда не правится по частям.
type Snapshot struct {
	UserID      string    `json:"user_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Currency    string    `json:"currency"`

	Totals       model.Totals                                    `json:"totals"`
	Series       map[analytics.Period]analytics.Series           `json:"series"`
	Categories   map[analytics.Period][]analytics.CategoryAmount `json:"categories"`
	IncomeTrend  analytics.TrendResult                           `json:"income_trend"`
	ExpenseTrend analytics.TrendResult                           `json:"expense_trend"`

	Goals  []model.GoalWithProgress `json:"goals"`
	Alerts alerts.Classification    `json:"alerts"`
	Recent []model.Transaction      `json:"recent"`

	seq uint64
}

// CurrencySymbol возвращает символ валюты снимка
func (s *Snapshot) CurrencySymbol() string {
	return model.CurrencySymbol(s.Currency)
}

// SnapshotStore хранит последний снимок каждого пользователя.
// Более старый по времени запуска снимок не вытесняет более новый, а снимок,
// начатый до изменения данных, не сохраняется после него.
type SnapshotStore struct {
	mu          sync.RWMutex
	snapshots   map[string]*Snapshot
	invalidated map[string]uint64 // номер последнего Invalidate по пользователю
	seq         uint64
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots:   make(map[string]*Snapshot),
		invalidated: make(map[string]uint64),
	}
}

// next выдает порядковый номер для снимка, который начинают строить
func (s *SnapshotStore) next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Put заменяет снимок пользователя целиком. Возвращает false, если уже
// сохранен снимок, построенный позже, или если данные менялись после
// начала сборки.
func (s *SnapshotStore) Put(snapshot *Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inv, ok := s.invalidated[snapshot.UserID]; ok && snapshot.seq < inv {
		return false
	}
	if current, ok := s.snapshots[snapshot.UserID]; ok && current.seq > snapshot.seq {
		return false
	}
	s.snapshots[snapshot.UserID] = snapshot
	return true
}

func (s *SnapshotStore) Get(userID string) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[userID]
	return snapshot, ok
}

// Invalidate удаляет снимок после изменения данных пользователя.
// Сборки, начатые раньше, после этого не сохраняются.
func (s *SnapshotStore) Invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.invalidated[userID] = s.seq
	delete(s.snapshots, userID)
}
