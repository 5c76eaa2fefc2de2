package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"plume/plume/controllers"
)

// UploadRoutes serves the signed upload parameters the browser needs to
// upload directly to the image host. No session required: the grant exposes
// no stored data, only a time-limited upload slot.
func UploadRoutes(ctrl *controllers.UploadController) chi.Router {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		auth, err := ctrl.GetUploadAuth(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, auth)
	})
	return r
}
