package billing

import (
	"net/http"
	"time"

	"github.com/angelmondragon/entitle-backend/api/responses"
	"github.com/angelmondragon/entitle-backend/api/validators"
	"github.com/angelmondragon/entitle-backend/internal/accounts"
	"github.com/angelmondragon/entitle-backend/internal/entitlements"
	pkgerrors "github.com/angelmondragon/entitle-backend/pkg/errors"
	"github.com/angelmondragon/entitle-backend/pkg/logger"
)

const refreshParam = "refresh"

type entitlementView struct {
	Source    string     `json:"source"`
	RecordID  string     `json:"record_id"`
	PriceName string     `json:"price_name"`
	Amount    string     `json:"amount"`
	Currency  string     `json:"currency"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type entitlementResponse struct {
	Entitled      bool             `json:"entitled"`
	Entitlement   *entitlementView `json:"entitlement,omitempty"`
	Subscriptions int              `json:"subscriptions"`
	Payments      int              `json:"payments"`
}

// Entitlement resolves the caller's current entitlement. With ?refresh=1 it
// forces a provider refetch and 303s back to itself without the flag, so a
// reload cannot trigger another refresh.
func Entitlement(svc *entitlements.Service, repo accounts.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		account := accountFromContext(r.Context(), repo)
		if account == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found"))
			return
		}

		if validators.ParseQueryFlag(r, refreshParam) {
			if _, err := svc.Current(r.Context(), account, true); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refreshing entitlement"))
				return
			}
			http.Redirect(w, r, stripQueryParam(r, refreshParam), http.StatusSeeOther)
			return
		}

		result, err := svc.Current(r.Context(), account, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving entitlement"))
			return
		}

		responses.WriteSuccess(w, toResponse(result))
	}
}

func toResponse(result *entitlements.Result) entitlementResponse {
	resp := entitlementResponse{
		Entitled:      result.Entitled(),
		Subscriptions: len(result.Records.Subscriptions),
		Payments:      len(result.Records.Payments),
	}
	if ent := result.Entitlement; ent != nil {
		resp.Entitlement = &entitlementView{
			Source:    string(ent.Source),
			RecordID:  ent.RecordID,
			PriceName: ent.Price.Name,
			Amount:    ent.Price.Amount().StringFixed(2),
			Currency:  ent.Price.Currency,
			ExpiresAt: ent.ExpiresAt,
		}
	}
	return resp
}

func stripQueryParam(r *http.Request, key string) string {
	target := *r.URL
	query := target.Query()
	query.Del(key)
	target.RawQuery = query.Encode()
	return target.String()
}
