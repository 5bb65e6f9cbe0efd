package database

import (
	"context"

	"github.com/siherrmann/streamer/model"
)

// StreamUserBatches opens a cursor yielding users in batches of the given
// size. The last batch may be smaller; the underlying stream still
// fetches row by row, only one batch is held in memory at a time.
func (r UserDBHandler) StreamUserBatches(ctx context.Context, batchSize int) (*BatchCursor, error) {
	if batchSize <= 0 {
		batchSize = 1
	}

	cursor, err := r.StreamUsers(ctx)
	if err != nil {
		return nil, err
	}

	return &BatchCursor{cursor: cursor, batchSize: batchSize}, nil
}

// LazyPaginateUsers returns a paginator that fetches one page of users
// per Next call, advancing the offset until an empty page is returned.
func (r UserDBHandler) LazyPaginateUsers(pageSize int) *PageCursor {
	if pageSize <= 0 {
		pageSize = 1
	}

	return &PageCursor{handler: r, pageSize: pageSize}
}

// BatchCursor groups the rows of a user stream into fixed size batches.
type BatchCursor struct {
	cursor    *UserCursor
	batchSize int
	batch     []*model.User
	err       error
}

// Next fetches the next batch. It returns false when the stream is
// exhausted or failed; a partial trailing batch is still returned.
func (c *BatchCursor) Next() bool {
	if c.err != nil {
		return false
	}

	batch := make([]*model.User, 0, c.batchSize)
	for len(batch) < c.batchSize && c.cursor.Next() {
		user, err := c.cursor.User()
		if err != nil {
			c.err = err
			return false
		}
		batch = append(batch, user)
	}

	if err := c.cursor.Err(); err != nil {
		c.err = err
		return false
	}

	if len(batch) == 0 {
		return false
	}

	c.batch = batch
	return true
}

// Batch returns the current batch.
func (c *BatchCursor) Batch() []*model.User {
	return c.batch
}

// Err returns the error that ended iteration, if any.
func (c *BatchCursor) Err() error {
	return c.err
}

// Close releases the underlying stream.
func (c *BatchCursor) Close() error {
	return c.cursor.Close()
}

// PageCursor pages through user_data with limit/offset queries. Every
// Next call issues a fresh query, so the paginator sees rows inserted
// between pages and holds no server side resources in between.
type PageCursor struct {
	handler  UserDBHandler
	pageSize int
	offset   int
	page     []*model.User
	err      error
}

// Next fetches the next page. It returns false on an empty page or error.
func (c *PageCursor) Next(ctx context.Context) bool {
	if c.err != nil {
		return false
	}

	page, err := c.handler.SelectUserPage(ctx, c.pageSize, c.offset)
	if err != nil {
		c.err = err
		return false
	}
	if len(page) == 0 {
		return false
	}

	c.page = page
	c.offset += c.pageSize
	return true
}

// Page returns the current page.
func (c *PageCursor) Page() []*model.User {
	return c.page
}

// Err returns the error that ended pagination, if any.
func (c *PageCursor) Err() error {
	return c.err
}

// FilterUsersByAge returns the users older than minAge, preserving order.
func FilterUsersByAge(users []*model.User, minAge int) []*model.User {
	filtered := []*model.User{}
	for _, user := range users {
		if user.Age > minAge {
			filtered = append(filtered, user)
		}
	}
	return filtered
}
