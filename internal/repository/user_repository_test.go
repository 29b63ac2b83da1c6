package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/iliyamo/hospital-portal/internal/database"
	"github.com/iliyamo/hospital-portal/internal/logging"
	"github.com/iliyamo/hospital-portal/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", logging.Discard())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func sampleUser(n int) *model.User {
	return &model.User{
		FirstName:    "John",
		LastName:     "Doe",
		Username:     fmt.Sprintf("johndoe%d", n),
		Email:        fmt.Sprintf("john%d@x.com", n),
		PhoneNumber:  fmt.Sprintf("+1202555%04d", n),
		PasswordHash: "hash",
		Role:         model.RoleUser,
	}
}

func TestUserRepo_CreateAndGet(t *testing.T) {
	repo := NewUserRepo(newTestDB(t))
	ctx := context.Background()

	u := sampleUser(1)
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, byID.Username)

	byName, err := repo.GetByUsername(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	byEmail, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_CreateDuplicate(t *testing.T) {
	repo := NewUserRepo(newTestDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sampleUser(1)))

	for name, mutate := range map[string]func(u *model.User){
		"username": func(u *model.User) { u.Username = "johndoe1" },
		"email":    func(u *model.User) { u.Email = "john1@x.com" },
		"phone":    func(u *model.User) { u.PhoneNumber = "+12025550001" },
	} {
		t.Run(name, func(t *testing.T) {
			u := sampleUser(2)
			mutate(u)
			assert.ErrorIs(t, repo.Create(ctx, u), ErrDuplicate)
		})
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserRepo_FindConflict(t *testing.T) {
	repo := NewUserRepo(newTestDB(t))
	ctx := context.Background()
	existing := sampleUser(1)
	require.NoError(t, repo.Create(ctx, existing))

	_, err := repo.FindConflict(ctx, "fresh", "fresh@x.com", "+12025559999")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repo.FindConflict(ctx, "fresh", existing.Email, "+12025559999")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
}

func TestUserRepo_UpdateAndDelete(t *testing.T) {
	repo := NewUserRepo(newTestDB(t))
	ctx := context.Background()
	u := sampleUser(1)
	require.NoError(t, repo.Create(ctx, u))

	role := model.RoleAdmin
	first := "Johnny"
	got, err := repo.Update(ctx, u.ID, UserUpdate{Role: &role, FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.Equal(t, "Johnny", got.FirstName)
	assert.Equal(t, "Doe", got.LastName)

	_, err = repo.Update(ctx, 999, UserUpdate{Role: &role})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "newhash"))
	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", stored.PasswordHash)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, 999, "x"), ErrNotFound)

	require.NoError(t, repo.Delete(ctx, u.ID))
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), ErrNotFound)
	_, err = repo.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsDuplicate(t *testing.T) {
	assert.False(t, isDuplicate(nil))
	assert.False(t, isDuplicate(errors.New("boom")))
	assert.True(t, isDuplicate(gorm.ErrDuplicatedKey))
	assert.True(t, isDuplicate(fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1045}))
	assert.True(t, isDuplicate(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isDuplicate(errors.New("UNIQUE constraint failed: users.email")))
}

func TestMedicalRecordRepo(t *testing.T) {
	repo := NewMedicalRecordRepo(newTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &model.MedicalRecord{Gender: "Male", Age: float64(40 + i), StrokeRisk: "Low", Prediction: "0"}))
	}
	recs, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, float64(42), recs[0].Age)
}
