package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/entitle-backend/api/responses"
	"github.com/angelmondragon/entitle-backend/api/validators"
	"github.com/angelmondragon/entitle-backend/internal/accounts"
	"github.com/angelmondragon/entitle-backend/pkg/auth"
	"github.com/angelmondragon/entitle-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/entitle-backend/pkg/errors"
	"github.com/angelmondragon/entitle-backend/pkg/logger"
)

type devTokenRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type devTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DevToken mints an access token for a known account. Mounted only in dev;
// deployed environments receive tokens from the upstream identity service.
func DevToken(cfg *config.Config, logg *logger.Logger, repo accounts.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body devTokenRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := repo.FindByEmail(r.Context(), body.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up account"))
			return
		}
		if account == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "account not found"))
			return
		}

		now := time.Now()
		token, err := auth.MintAccessToken(cfg.JWT, now, auth.AccessTokenPayload{
			AccountID: account.ID,
			Email:     account.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token"))
			return
		}

		responses.WriteSuccess(w, devTokenResponse{
			Token:     token,
			ExpiresAt: now.Add(time.Duration(cfg.JWT.ExpirationMinutes) * time.Minute),
		})
	}
}
