package repository

import (
	"context"
	"errors"

	"estatehub/cmd/internal/domain/database"
	"estatehub/cmd/internal/domain/entity"
	"gorm.io/gorm"
)

type DefaultUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *DefaultUserRepository {
	return &DefaultUserRepository{db: db}
}

func (u *DefaultUserRepository) FindByID(ctx context.Context, id int) (*entity.User, error) {
	var user entity.User
	err := database.Conn(ctx, u.db).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (u *DefaultUserRepository) FindBySub(ctx context.Context, sub string) (*entity.User, error) {
	var user entity.User
	err := database.Conn(ctx, u.db).Where("sub_uuid = ?", sub).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (u *DefaultUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := database.Conn(ctx, u.db).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (u *DefaultUserRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	var users []*entity.User
	err := database.Conn(ctx, u.db).Order("id asc").Find(&users).Error
	return users, err
}

func (u *DefaultUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := database.Conn(ctx, u.db).Model(&entity.User{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

func (u *DefaultUserRepository) Save(ctx context.Context, user *entity.User) error {
	return database.Conn(ctx, u.db).Save(user).Error
}
