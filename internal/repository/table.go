package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/sabotage-connect4/internal/apperror"
	"github.com/rocketscienceinc/sabotage-connect4/internal/entity"
)

const maxUpdateRetries = 10

// UpdateFunc mutates a table inside the store's critical section. Returning an
// error discards the mutation.
type UpdateFunc = func(table *entity.Table) error

type TableRepository interface {
	CreateOrUpdate(ctx context.Context, table *entity.Table) error
	GetByID(ctx context.Context, id string) (*entity.Table, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Table, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbTable struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTableRepository stores tables in Redis. Every write refreshes the TTL, so an
// idle table expires; zero keeps tables forever.
func NewTableRepository(client *redis.Client, ttl time.Duration) TableRepository {
	return &dbTable{
		client: client,
		ttl:    ttl,
	}
}

func tableKey(id string) string {
	return "table:" + id
}

func (that *dbTable) CreateOrUpdate(ctx context.Context, table *entity.Table) error {
	tableJSON, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("could not marshal table: %w", err)
	}

	err = that.client.Set(ctx, tableKey(table.ID), tableJSON, that.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set table: %w", err)
	}

	return nil
}

func (that *dbTable) GetByID(ctx context.Context, id string) (*entity.Table, error) {
	response, err := that.client.Get(ctx, tableKey(id)).Bytes()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrTableNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get table by id: %w", err)
	}

	return decodeTable(response)
}

// Update runs fn under WATCH on the table key and writes the result in a
// MULTI/EXEC block, retrying when another writer got there first.
func (that *dbTable) Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Table, error) {
	key := tableKey(id)

	var updated *entity.Table

	txf := func(tx *redis.Tx) error {
		response, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return apperror.ErrTableNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to get table: %w", err)
		}

		table, err := decodeTable(response)
		if err != nil {
			return err
		}

		if err = fn(table); err != nil {
			return err
		}

		tableJSON, err := json.Marshal(table)
		if err != nil {
			return fmt.Errorf("could not marshal table: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, tableJSON, that.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		updated = table

		return nil
	}

	for range maxUpdateRetries {
		err := that.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil {
			return nil, err
		}

		return updated, nil
	}

	return nil, fmt.Errorf("%w: table %s", apperror.ErrTableConflict, id)
}

func (that *dbTable) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, tableKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete table by ID: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrTableNotFound
	}

	return nil
}

func decodeTable(data []byte) (*entity.Table, error) {
	var table entity.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal table: %w", err)
	}

	if table.Game == nil {
		table.Game = entity.NewGame()
	}

	return &table, nil
}
