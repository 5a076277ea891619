package server

import "net/http"

const adminDashboard = "/dashboard/admin"

func (h *APIHandler) BlockUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.moderation.Block(r.Context(), GetIdentityFromContext(r.Context()), userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) UnblockUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.moderation.Unblock(r.Context(), GetIdentityFromContext(r.Context()), userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminDeleteSongHandler removes a song and notifies its creator with the
// optional "reason" form field.
func (h *APIHandler) AdminDeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.moderation.AdminDeleteSong(r.Context(), GetIdentityFromContext(r.Context()), songID, r.FormValue("reason")); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, adminDashboard)
}
