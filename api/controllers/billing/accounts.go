package billing

import (
	"context"

	"github.com/angelmondragon/entitle-backend/api/middleware"
	"github.com/angelmondragon/entitle-backend/internal/accounts"
	"github.com/angelmondragon/entitle-backend/pkg/db/models"
)

// accountFromContext loads the authenticated account, or nil when the request
// carries no identity or the account no longer exists.
func accountFromContext(ctx context.Context, repo accounts.Repository) *models.Account {
	accountID, ok := middleware.AccountIDFromContext(ctx)
	if !ok {
		return nil
	}
	account, err := repo.FindByID(ctx, accountID)
	if err != nil {
		return nil
	}
	return account
}
