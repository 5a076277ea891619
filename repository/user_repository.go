package repository

import (
	"context"

	"tunex/core/apperr"
	"tunex/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines user and role data operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User, roleNames []string) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetForUpdate loads the user row without roles and locks it until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	SetBlocked(ctx context.Context, id int64, blocked bool) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository 创建 GORM 用户仓库
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// Create inserts user and links it to the named roles. A duplicate email
// yields ErrConflict.
func (r *gormUserRepository) Create(ctx context.Context, user *model.User, roleNames []string) error {
	db := r.db.WithContext(ctx)
	if len(roleNames) > 0 {
		var roles []model.Role
		if err := db.Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
			return translate(err, "load roles")
		}
		user.Roles = roles
	}
	err := db.Create(user).Error
	if isDuplicate(err) {
		return apperr.Conflict("Email already exists")
	}
	return translate(err, "create user %s", user.Email)
}

func (r *gormUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Preload("Roles").First(&user, id).Error
	if err != nil {
		return nil, translate(err, "user %d", id)
	}
	return &user, nil
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err, "user %s", email)
	}
	return &user, nil
}

func (r *gormUserRepository) GetForUpdate(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error
	if err != nil {
		return nil, translate(err, "user %d", id)
	}
	return &user, nil
}

func (r *gormUserRepository) List(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).Preload("Roles").Order("id ASC").Find(&users).Error
	return users, translate(err, "list users")
}

// SetBlocked 设置封禁状态，用户不存在时返回 ErrNotFound
func (r *gormUserRepository) SetBlocked(ctx context.Context, id int64, blocked bool) error {
	db := r.db.WithContext(ctx)
	var count int64
	if err := db.Model(&model.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate(err, "user %d", id)
	}
	if count == 0 {
		return translate(gorm.ErrRecordNotFound, "user %d", id)
	}
	err := db.Model(&model.User{}).Where("id = ?", id).Update("blocked", blocked).Error
	return translate(err, "update user %d", id)
}

func (r *gormUserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return translate(res.Error, "update password for user %d", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user %d", id)
	}
	return nil
}
