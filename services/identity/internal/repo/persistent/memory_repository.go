package persistent

import (
	"context"
	"sync"
	"time"

	"engage-predict/pkg/apperror"
	"engage-predict/services/identity/internal/entity"
	"engage-predict/services/identity/internal/model"
)

// memoryUserRepository keeps users in process memory, for local runs and tests.
type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*model.UserModel
	byEmail map[string]string
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    make(map[string]*model.UserModel),
		byEmail: make(map[string]string),
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return apperror.Conflict("Email already registered")
	}

	userModel := ToUserModel(user)
	userModel.Prepare(time.Now())
	r.byID[userModel.ID] = userModel
	r.byEmail[userModel.Email] = userModel.ID

	*user = *ToUserEntity(userModel)
	return nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return ToUserEntity(r.byID[id]), nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userModel, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return ToUserEntity(userModel), nil
}
