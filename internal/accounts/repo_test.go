package accounts

import (
	"context"
	"testing"

	"github.com/angelmondragon/entitle-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAccountsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	accounts := `
CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  stripe_customer_id TEXT UNIQUE,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(accounts).Error)
	return db
}

func newAccount(t *testing.T, db *gorm.DB, email string, customerID *string) *models.Account {
	t.Helper()

	account := &models.Account{
		ID:               uuid.New(),
		Email:            email,
		Name:             "Test Account",
		StripeCustomerID: customerID,
		IsActive:         true,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestRepositoryFindByID(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := newAccount(t, db, "owner@example.com", nil)

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, "owner@example.com", found.Email)
	assert.Nil(t, found.StripeCustomerID)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryFindByEmail(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := newAccount(t, db, "member@example.com", nil)

	found, err := repo.FindByEmail(ctx, "member@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, seeded.ID, found.ID)

	missing, err := repo.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryFindByStripeCustomerID(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	customerID := "cus_linked"
	seeded := newAccount(t, db, "linked@example.com", &customerID)
	newAccount(t, db, "unlinked@example.com", nil)

	found, err := repo.FindByStripeCustomerID(ctx, "cus_linked")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, seeded.ID, found.ID)

	missing, err := repo.FindByStripeCustomerID(ctx, "cus_other")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryUpdateStripeCustomerID(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seeded := newAccount(t, db, "billing@example.com", nil)

	customerID := "cus_new"
	require.NoError(t, repo.UpdateStripeCustomerID(ctx, seeded.ID, &customerID))

	found, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.StripeCustomerID)
	assert.Equal(t, "cus_new", *found.StripeCustomerID)
	assert.Equal(t, "billing@example.com", found.Email)

	// nil clears the link without touching other columns
	require.NoError(t, repo.UpdateStripeCustomerID(ctx, seeded.ID, nil))

	cleared, err := repo.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, cleared)
	assert.Nil(t, cleared.StripeCustomerID)
	assert.Equal(t, "Test Account", cleared.Name)
}

func TestRepositoryCreateRejectsDuplicateEmail(t *testing.T) {
	db := setupAccountsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newAccount(t, db, "taken@example.com", nil)

	dup := &models.Account{
		ID:    uuid.New(),
		Email: "taken@example.com",
		Name:  "Duplicate",
	}
	assert.Error(t, repo.Create(ctx, dup))
}
