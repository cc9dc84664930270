package memory

import (
	"context"

	"lpotracker/internal/model"
	"lpotracker/internal/repository"
)

type userRepository struct {
	s *Store
}

func (r *userRepository) emailTaken(email string, exceptID uint) bool {
	for id, u := range r.s.users {
		if u.Email == email && id != exceptID {
			return true
		}
	}
	return false
}

func (r *userRepository) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(user.Email, 0) {
		return repository.ErrDuplicate
	}
	r.s.nextUserID++
	now := r.s.now()
	user.ID = r.s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id uint) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) List(_ context.Context, page repository.Page) ([]model.User, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]model.User, 0, len(r.s.users))
	for _, id := range sortedKeys(r.s.users) {
		users = append(users, r.s.users[id])
	}
	return paginate(users, page), int64(len(users)), nil
}

func (r *userRepository) Update(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicate
	}
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) UpdatePassword(_ context.Context, id uint, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}
