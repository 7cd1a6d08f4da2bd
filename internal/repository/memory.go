package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rocketscienceinc/sabotage-connect4/internal/apperror"
	"github.com/rocketscienceinc/sabotage-connect4/internal/entity"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// memTable keeps encoded tables so callers never share a *entity.Table with the store.
type memTable struct {
	mu      sync.Mutex
	tables  map[string]memoryEntry
	ttl     time.Duration
	nowFunc func() time.Time
}

func NewMemoryTableRepository(ttl time.Duration) TableRepository {
	return newMemoryTableRepository(ttl, time.Now)
}

func newMemoryTableRepository(ttl time.Duration, now func() time.Time) *memTable {
	return &memTable{
		tables:  make(map[string]memoryEntry),
		ttl:     ttl,
		nowFunc: now,
	}
}

func (that *memTable) CreateOrUpdate(_ context.Context, table *entity.Table) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sweep()

	return that.store(table)
}

func (that *memTable) GetByID(_ context.Context, id string) (*entity.Table, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	entry, err := that.load(id)
	if err != nil {
		return nil, err
	}

	return decodeTable(entry.data)
}

func (that *memTable) Update(_ context.Context, id string, fn UpdateFunc) (*entity.Table, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	entry, err := that.load(id)
	if err != nil {
		return nil, err
	}

	table, err := decodeTable(entry.data)
	if err != nil {
		return nil, err
	}

	if err = fn(table); err != nil {
		return nil, err
	}

	if err = that.store(table); err != nil {
		return nil, err
	}

	return table, nil
}

func (that *memTable) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, err := that.load(id); err != nil {
		return err
	}

	delete(that.tables, id)

	return nil
}

// load must be called with mu held. Expired entries are dropped on access.
func (that *memTable) load(id string) (memoryEntry, error) {
	entry, ok := that.tables[id]
	if !ok {
		return memoryEntry{}, apperror.ErrTableNotFound
	}

	if !entry.expiresAt.IsZero() && !that.nowFunc().Before(entry.expiresAt) {
		delete(that.tables, id)
		return memoryEntry{}, apperror.ErrTableNotFound
	}

	return entry, nil
}

// sweep drops every expired entry. Callers hold mu.
func (that *memTable) sweep() {
	now := that.nowFunc()

	for id, entry := range that.tables {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(that.tables, id)
		}
	}
}

func (that *memTable) store(table *entity.Table) error {
	tableJSON, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("could not marshal table: %w", err)
	}

	entry := memoryEntry{data: tableJSON}
	if that.ttl > 0 {
		entry.expiresAt = that.nowFunc().Add(that.ttl)
	}

	that.tables[table.ID] = entry

	return nil
}
