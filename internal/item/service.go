package item

import (
	"context"

	"github.com/msto63/itemdb/internal/boundary"
	"github.com/msto63/itemdb/internal/session"
	"github.com/msto63/itemdb/internal/txscope"
)

// Service runs each item operation in its own transaction scope: the session
// is committed on success, rolled back on failure and always closed.
type Service struct {
	scope    *txscope.Scope
	boundary *boundary.Boundary
	repo     *Repository
}

// NewService creates a service. The repository's boundary translates errors.
func NewService(scope *txscope.Scope, repo *Repository) *Service {
	return &Service{scope: scope, boundary: repo.boundary, repo: repo}
}

// Create inserts an item and commits
func (s *Service) Create(ctx context.Context, p CreateParams) (*Item, error) {
	return txscope.Do(ctx, s.scope, s.boundary, OpCreate, p, s.repo.create)
}

// Get loads an item
func (s *Service) Get(ctx context.Context, id int64) (*Item, error) {
	return txscope.Do(ctx, s.scope, s.boundary, OpGet, id, s.repo.get)
}

// List loads all items
func (s *Service) List(ctx context.Context) ([]*Item, error) {
	return txscope.Do(ctx, s.scope, s.boundary, OpList, struct{}{}, s.repo.list)
}

// Update changes an item and commits
func (s *Service) Update(ctx context.Context, p UpdateParams) (*Item, error) {
	return txscope.Do(ctx, s.scope, s.boundary, OpUpdate, p, s.repo.update)
}

// Delete removes an item and commits
func (s *Service) Delete(ctx context.Context, id int64) error {
	_, err := txscope.Do(ctx, s.scope, s.boundary, OpDelete, id,
		func(ctx context.Context, sess session.Session, id int64) (struct{}, error) {
			return struct{}{}, s.repo.delete(ctx, sess, id)
		})
	return err
}
