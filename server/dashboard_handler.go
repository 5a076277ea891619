package server

import "net/http"

func (h *APIHandler) UserDashboardHandler(w http.ResponseWriter, r *http.Request) {
	dash, err := h.library.Listener(r.Context(), GetIdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *APIHandler) CreatorDashboardHandler(w http.ResponseWriter, r *http.Request) {
	dash, err := h.library.Creator(r.Context(), GetIdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *APIHandler) AdminDashboardHandler(w http.ResponseWriter, r *http.Request) {
	dash, err := h.library.Admin(r.Context(), GetIdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}
