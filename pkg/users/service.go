package users

import (
	stderrors "errors"

	"gorm.io/gorm"

	errs "github.com/userdeck/userdeck/pkg/errors"
	"github.com/userdeck/userdeck/pkg/types"
)

// Paging bounds for List. Out-of-range requests are clamped, not rejected.
const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Service implements the account management operations behind the user
// endpoints.
type Service struct {
	repository *Repository
}

// NewService creates a new account service
func NewService(repository *Repository) *Service {
	return &Service{repository: repository}
}

// Create adds a new account. The username must be unique and a password is
// required.
func (s *Service) Create(input types.UserInput) (*types.User, error) {
	if input.Password == "" {
		return nil, errs.NewBadRequest("password is required")
	}

	existing, err := s.repository.GetByUsername(input.Username)
	if err != nil {
		return nil, internal(err)
	}
	if existing != nil {
		return nil, errs.NewBadRequest("username already exists")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, internal(err)
	}

	status := true
	if input.Status != nil {
		status = *input.Status
	}

	user := &User{
		Name:        input.Name,
		Username:    input.Username,
		Password:    hash,
		Status:      status,
		Description: input.Description,
	}
	if err := s.repository.Create(user); err != nil {
		return nil, internal(err)
	}

	public := user.Public()
	return &public, nil
}

// Get fetches one account by id
func (s *Service) Get(id uint) (*types.User, error) {
	user, err := s.repository.GetByID(id)
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		return nil, errs.NewNotFound("user not found")
	}

	public := user.Public()
	return &public, nil
}

// Update rewrites the writable fields of an account. An empty password
// leaves the stored hash untouched.
func (s *Service) Update(id uint, input types.UserInput) (*types.User, error) {
	user, err := s.repository.GetByID(id)
	if err != nil {
		return nil, internal(err)
	}
	if user == nil {
		return nil, errs.NewNotFound("user not found")
	}

	if input.Username != user.Username {
		existing, err := s.repository.GetByUsername(input.Username)
		if err != nil {
			return nil, internal(err)
		}
		if existing != nil {
			return nil, errs.NewBadRequest("username already exists")
		}
	}

	user.Name = input.Name
	user.Username = input.Username
	user.Description = input.Description
	if input.Status != nil {
		user.Status = *input.Status
	}
	if input.Password != "" {
		hash, err := HashPassword(input.Password)
		if err != nil {
			return nil, internal(err)
		}
		user.Password = hash
	}

	if err := s.repository.Update(user); err != nil {
		return nil, internal(err)
	}

	public := user.Public()
	return &public, nil
}

// Delete removes an account
func (s *Service) Delete(id uint) (*types.DeleteResult, error) {
	if err := s.repository.Delete(id); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("user not found")
		}
		return nil, internal(err)
	}
	return &types.DeleteResult{Deleted: true}, nil
}

// List returns one page of accounts matching the optional name filter
func (s *Service) List(page, size int, name string) (*types.Page[types.User], error) {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultSize
	}
	if size > MaxSize {
		size = MaxSize
	}

	records, total, err := s.repository.List(page, size, name)
	if err != nil {
		return nil, internal(err)
	}

	items := make([]types.User, 0, len(records))
	for i := range records {
		items = append(items, records[i].Public())
	}

	return &types.Page[types.User]{
		Items: items,
		Total: total,
		Page:  page,
		Size:  size,
	}, nil
}

// internal tags a storage failure with the server error cause
func internal(err error) *errs.Error {
	return errs.Wrap(err, errs.CauseServerError, errs.MsgServerError)
}
