package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

// Records are stored as raw JSON under "<kind>:<id>"; the ids of a kind are
// kept in the set "<kind>:ids" so listing never needs SCAN.

func recordKey(kind, id string) string {
	return fmt.Sprintf("%s:%s", kind, id)
}

func indexKey(kind string) string {
	return fmt.Sprintf("%s:ids", kind)
}

// ListIDs returns the ids of every record of kind, sorted.
func (c *Client) ListIDs(ctx context.Context, kind string) ([]string, error) {
	const op = "store.redis.list_ids"

	var ids []string
	err := retry(ctx, 3, func() error {
		var err error
		ids, err = c.rdb.SMembers(ctx, indexKey(kind)).Result()
		return err
	})
	if err != nil {
		return nil, apperror.New(apperror.Dependency, op, err)
	}

	sort.Strings(ids)
	return ids, nil
}

func (c *Client) Read(ctx context.Context, kind, id string) ([]byte, error) {
	const op = "store.redis.read"

	var data []byte
	err := retry(ctx, 3, func() error {
		var err error
		data, err = c.rdb.Get(ctx, recordKey(kind, id)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, apperror.New(apperror.Dependency, op, err)
	}
	if data == nil {
		return nil, &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: fmt.Sprintf("%s %q not found", kind, id),
		}
	}

	return data, nil
}

// Create writes a new record and indexes it. It fails with Conflict when
// the id is already indexed.
func (c *Client) Create(ctx context.Context, kind, id string, data []byte) error {
	const op = "store.redis.create"

	var created int
	err := retry(ctx, 3, func() error {
		var err error
		created, err = createRecordScript.Run(ctx, c.rdb, []string{recordKey(kind, id), indexKey(kind)}, id, data).Int()
		return err
	})
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	if created == 0 {
		return &apperror.Error{
			Kind:    apperror.Conflict,
			Op:      op,
			Message: fmt.Sprintf("%s %q already exists", kind, id),
		}
	}
	return nil
}

// Update overwrites an existing record. An id that is no longer indexed is
// not recreated; Update returns NotFound.
func (c *Client) Update(ctx context.Context, kind, id string, data []byte) error {
	const op = "store.redis.update"

	var updated int
	err := retry(ctx, 3, func() error {
		var err error
		updated, err = updateRecordScript.Run(ctx, c.rdb, []string{recordKey(kind, id), indexKey(kind)}, id, data).Int()
		return err
	})
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	if updated == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: fmt.Sprintf("%s %q not found", kind, id),
		}
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, kind, id string) error {
	const op = "store.redis.delete"

	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, recordKey(kind, id))
		p.SRem(ctx, indexKey(kind), id)
		return nil
	})
	if err != nil {
		return apperror.New(apperror.Dependency, op, err)
	}
	return nil
}
