// Package memory keeps every repository in process memory. It backs local
// runs (STORE_DRIVER=memory) and the service and handler tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/google/uuid"
)

type recordKey struct {
	EmployeeID string
	Month      payroll.Month
}

type Store struct {
	mu         sync.RWMutex
	employees  map[string]employee.Employee
	facts      map[string][]attendance.Fact
	profiles   map[string]payroll.CompensationProfile
	rates      map[string][]payroll.RateEntry
	records    map[string]payroll.PayrollRecord
	recordKeys map[recordKey]string

	now   func() time.Time
	newID func() string
}

func NewStore() *Store {
	return &Store{
		employees:  make(map[string]employee.Employee),
		facts:      make(map[string][]attendance.Fact),
		profiles:   make(map[string]payroll.CompensationProfile),
		rates:      make(map[string][]payroll.RateEntry),
		records:    make(map[string]payroll.PayrollRecord),
		recordKeys: make(map[recordKey]string),
		now:        time.Now,
		newID: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
	}
}

// WithinTransaction runs fn directly. Every single repository call is
// atomic on its own; there is no multi-call rollback.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// PutEmployee inserts or replaces a directory entry.
func (s *Store) PutEmployee(e employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.UpdatedAt = s.now()
	s.employees[e.ID] = e
}

// AddFacts appends attendance facts to the ledger.
func (s *Store) AddFacts(facts ...attendance.Fact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range facts {
		f.Date = payroll.Day(f.Date)
		s.facts[f.EmployeeID] = append(s.facts[f.EmployeeID], f)
	}
}

// ReplaceFacts swaps the whole ledger of one employee.
func (s *Store) ReplaceFacts(employeeID string, facts ...attendance.Fact) {
	s.mu.Lock()
	s.facts[employeeID] = nil
	s.mu.Unlock()
	s.AddFacts(facts...)
}

// RecordCount returns the number of stored payroll records.
func (s *Store) RecordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
