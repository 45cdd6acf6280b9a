package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Conte777/telegram-files/internal/domain/account/deps"
	"github.com/Conte777/telegram-files/internal/domain/account/entities"
	accounterrors "github.com/Conte777/telegram-files/internal/domain/account/errors"
	"github.com/Conte777/telegram-files/internal/infrastructure/database"
	pkgerrors "github.com/Conte777/telegram-files/pkg/errors"
)

// Repository implements deps.AccountRepository on top of gorm
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new account repository
func NewRepository(db *gorm.DB) deps.AccountRepository {
	return &Repository{db: db}
}

// Create stores a newly authorized account
func (r *Repository) Create(ctx context.Context, account *entities.Account) error {
	model := entities.NewAccountModel(account)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if database.IsUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return accounterrors.ErrAccountAlreadyExists
		}
		return pkgerrors.NewPersistenceError("create account", err)
	}

	account.CreatedAt = model.CreatedAt
	account.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID retrieves an account by telegram id
func (r *Repository) GetByID(ctx context.Context, id int64) (*entities.Account, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByRootPath retrieves the account stored for a data directory
func (r *Repository) GetByRootPath(ctx context.Context, rootPath string) (*entities.Account, error) {
	return r.first(ctx, "root_path = ?", rootPath)
}

func (r *Repository) first(ctx context.Context, query string, arg interface{}) (*entities.Account, error) {
	var model entities.AccountModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accounterrors.ErrAccountNotFound
		}
		return nil, pkgerrors.NewPersistenceError("get account", err)
	}

	return model.ToEntity(), nil
}

// List returns all stored accounts ordered by creation
func (r *Repository) List(ctx context.Context) ([]*entities.Account, error) {
	var models []entities.AccountModel
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, pkgerrors.NewPersistenceError("list accounts", err)
	}

	accounts := make([]*entities.Account, 0, len(models))
	for i := range models {
		accounts = append(accounts, models[i].ToEntity())
	}

	return accounts, nil
}

// Delete removes an account; missing accounts are not an error
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&entities.AccountModel{}, "id = ?", id).Error; err != nil {
		return pkgerrors.NewPersistenceError("delete account", err)
	}
	return nil
}
