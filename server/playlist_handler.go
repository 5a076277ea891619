package server

import (
	"net/http"

	"tunex/core/playlist"
	"tunex/model"
)

const userDashboard = "/dashboard/user"

// ReorderRequest 歌单排序请求
type ReorderRequest struct {
	Order []playlist.Move `json:"order"`
}

// PlaylistView is a playlist with its songs in play order.
type PlaylistView struct {
	Playlist *model.Playlist       `json:"playlist"`
	Songs    []*model.PlaylistSong `json:"songs"`
}

func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.playlists.Create(r.Context(), GetIdentityFromContext(r.Context()), r.FormValue("name")); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, userDashboard)
}

func (h *APIHandler) RenamePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.playlists.Rename(r.Context(), GetIdentityFromContext(r.Context()), playlistID, r.FormValue("name")); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, userDashboard)
}

// AddToPlaylistHandler appends a song; adding a present song is a no-op.
func (h *APIHandler) AddToPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, songID, err := playlistAndSong(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.playlists.Add(r.Context(), GetIdentityFromContext(r.Context()), playlistID, songID); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, userDashboard)
}

func (h *APIHandler) RemoveFromPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, songID, err := playlistAndSong(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.playlists.Remove(r.Context(), GetIdentityFromContext(r.Context()), playlistID, songID); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, userDashboard)
}

// ReorderPlaylistHandler applies {"order":[{"song_id":..,"position":..}]}.
func (h *APIHandler) ReorderPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req ReorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.playlists.Reorder(r.Context(), GetIdentityFromContext(r.Context()), playlistID, req.Order); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.playlists.Delete(r.Context(), GetIdentityFromContext(r.Context()), playlistID); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, userDashboard)
}

// GetPlaylistHandler returns the playlist with songs ordered by position.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, entries, err := h.playlists.List(r.Context(), GetIdentityFromContext(r.Context()), playlistID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*model.PlaylistSong{}
	}
	writeJSON(w, http.StatusOK, PlaylistView{Playlist: p, Songs: entries})
}

func (h *APIHandler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.playlists.ListOwned(r.Context(), GetIdentityFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func playlistAndSong(r *http.Request) (int64, int64, error) {
	playlistID, err := formID(r, "playlist_id")
	if err != nil {
		return 0, 0, err
	}
	songID, err := formID(r, "song_id")
	if err != nil {
		return 0, 0, err
	}
	return playlistID, songID, nil
}
