package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/iliyamo/hospital-portal/internal/model"
)

// UserRepo is the Credential Store.  All methods honour ctx.
type UserRepo struct{ DB *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{DB: db} }

// UserUpdate carries the mutable fields of a user.  Nil fields are left
// untouched.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Role      *string
}

// Create inserts u inside a transaction and fills in its ID.  A unique index
// violation yields ErrDuplicate and nothing is written.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return mapErr(tx.Create(u).Error)
	})
}

// FindConflict returns the first existing user sharing the username, email
// or phone number, or ErrNotFound when all three are free.  It is a fast
// path only; Create still relies on the unique indexes.
func (r *UserRepo) FindConflict(ctx context.Context, username, email, phone string) (model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).
		Where("username = ? OR email = ? OR phone_number = ?", username, email, phone).
		Take(&u).Error
	return u, mapErr(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Take(&u, id).Error
	return u, mapErr(err)
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Where("username = ?", username).Take(&u).Error
	return u, mapErr(err)
}

// GetByEmail fetches a user by exact email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).Take(&u).Error
	return u, mapErr(err)
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.DB.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Update applies upd to the user with the given id and returns the stored
// row afterwards.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate) (model.User, error) {
	var out model.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&out, id).Error; err != nil {
			return mapErr(err)
		}
		fields := map[string]interface{}{}
		if upd.FirstName != nil {
			fields["first_name"] = *upd.FirstName
		}
		if upd.LastName != nil {
			fields["last_name"] = *upd.LastName
		}
		if upd.Role != nil {
			fields["role"] = *upd.Role
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&out).Updates(fields).Error; err != nil {
			return mapErr(err)
		}
		return tx.Take(&out, id).Error
	})
	return out, err
}

// UpdatePassword overwrites the password hash of the user with the given id.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user with the given id.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res := r.DB.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
