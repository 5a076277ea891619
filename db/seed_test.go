package db_test

import (
	"context"
	"testing"
	"time"

	"tunex/core/account"
	"tunex/core/auth"
	"tunex/db"
	"tunex/internal/dbtest"
	"tunex/model"
	"tunex/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotent(t *testing.T) {
	gdb := dbtest.New(t)
	admin := db.AdminAccount{Email: "admin@tunex.com", Username: "TUNEX_ADMIN", Password: "admin123"}

	require.NoError(t, db.Seed(context.Background(), gdb, admin))
	require.NoError(t, db.Seed(context.Background(), gdb, admin))

	var roles int64
	require.NoError(t, gdb.Model(&model.Role{}).Count(&roles).Error)
	assert.Equal(t, int64(3), roles)

	var genres []model.Genre
	require.NoError(t, gdb.Order("id").Find(&genres).Error)
	require.Len(t, genres, 4)
	assert.Equal(t, "Pop", genres[0].Name)

	var admins []model.User
	require.NoError(t, gdb.Preload("Roles").Where("email = ?", admin.Email).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, []string{model.RoleNameAdmin}, admins[0].RoleNames())
	assert.True(t, auth.CheckPasswordHash("admin123", admins[0].PasswordHash))
}

func TestSeedLeavesCustomGenresAlone(t *testing.T) {
	gdb := dbtest.New(t)
	require.NoError(t, gdb.Where("1 = 1").Delete(&model.Genre{}).Error)
	require.NoError(t, gdb.Create(&model.Genre{Name: "Jazz"}).Error)

	require.NoError(t, db.Seed(context.Background(), gdb, db.AdminAccount{}))

	var names []string
	require.NoError(t, gdb.Model(&model.Genre{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"Jazz"}, names)
}

func TestSeedNormalizesAdminEmail(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	admin := db.AdminAccount{Email: " Ops@TuneX.com ", Username: "OPS", Password: "ops-secret"}

	require.NoError(t, db.Seed(ctx, gdb, admin))
	admin.Email = "OPS@tunex.com"
	require.NoError(t, db.Seed(ctx, gdb, admin))

	var count int64
	require.NoError(t, gdb.Model(&model.User{}).Where("email = ?", "ops@tunex.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	svc := account.NewService(repository.NewStore(gdb), auth.NewTokenManager("k", time.Hour), nil)
	session, err := svc.Login(ctx, "Ops@TuneX.com", "ops-secret", "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, "OPS", session.User.Username)
}
