package dao

import (
	"context"

	errors "github.com/Laisky/errors/v2"
	"gorm.io/gorm"

	"github.com/Laisky/laisky-drive/internal/web/drive/model"
)

// Users queries the account table.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Exists reports whether a user id resolves to an account.
func (d *Users) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(err, "count user `%d`", id)
	}

	return count > 0, nil
}

// Create inserts a new account.
func (d *Users) Create(ctx context.Context, user *model.User) error {
	if err := d.db.WithContext(ctx).Create(user).Error; err != nil {
		return errors.Wrapf(err, "create user `%s`", user.Email)
	}

	return nil
}

// FindByEmail loads an account by its unique email.
func (d *Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := new(model.User)
	err := d.db.WithContext(ctx).
		Where("email = ?", email).
		First(user).Error
	if err != nil {
		return nil, errors.Wrapf(err, "find user `%s`", email)
	}

	return user, nil
}
