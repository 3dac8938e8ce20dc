package billing

import (
	"net/http"

	"github.com/angelmondragon/entitle-backend/internal/accounts"
	"github.com/angelmondragon/entitle-backend/internal/checkout"
	"github.com/angelmondragon/entitle-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// Checkout sends the browser to a provider checkout session for the named
// price. Every failure mode resolves to a redirect; this endpoint never
// renders an error page.
func Checkout(svc *checkout.Service, repo accounts.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		priceName := chi.URLParam(r, "priceName")
		next := r.URL.Query().Get("next")

		account := accountFromContext(r.Context(), repo)
		target := svc.InitiatePayment(r.Context(), account, priceName, next)
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// Portal sends the browser to the billing portal, or straight back to the
// return URL when no verified customer exists.
func Portal(svc *checkout.Service, repo accounts.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		returnURL := r.URL.Query().Get("return_url")

		account := accountFromContext(r.Context(), repo)
		target := svc.SendToPortal(r.Context(), account, returnURL)
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}
