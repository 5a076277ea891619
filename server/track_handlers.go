package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"tunex/core/apperr"
	"tunex/core/library"
	"tunex/logger"
	"tunex/storage"
)

const creatorDashboard = "/dashboard/creator"

// UploadSongHandler handles audio uploads from creators.
// Expected multipart form fields:
//   - file: the audio file (mp3 or wav)
//   - title: song title
//   - genre_id: genre (optional)
//   - artists: comma separated artist names (optional)
func (h *APIHandler) UploadSongHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse multipart form: %v", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing 'file' in form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	in := library.UploadInput{
		Title:    r.FormValue("title"),
		Filename: header.Filename,
		Body:     file,
	}
	raw := strings.TrimSpace(r.FormValue("genre_id"))
	if raw == "" {
		writeError(w, r, apperr.Validation("genre_id is required"))
		return
	}
	genreID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, r, apperr.Validation("invalid genre_id %q", raw))
		return
	}
	in.GenreID = genreID
	if raw := r.FormValue("artists"); raw != "" {
		in.Artists = strings.Split(raw, ",")
	}

	if _, err := h.library.Upload(r.Context(), GetIdentityFromContext(r.Context()), in); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, creatorDashboard)
}

// EditSongHandler renames one of the creator's songs.
func (h *APIHandler) EditSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.library.EditTitle(r.Context(), GetIdentityFromContext(r.Context()), songID, r.FormValue("title")); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, creatorDashboard)
}

// DeleteOwnSongHandler lets a creator remove an own song.
func (h *APIHandler) DeleteOwnSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.moderation.CreatorDeleteSong(r.Context(), GetIdentityFromContext(r.Context()), songID); err != nil {
		writeError(w, r, err)
		return
	}
	seeOther(w, r, creatorDashboard)
}

// PlaySongHandler counts a play. Refused plays still answer 204.
func (h *APIHandler) PlaySongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.library.RecordPlay(r.Context(), GetIdentityFromContext(r.Context()), songID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LyricsHandler returns stored lyrics, transcribing them on first request.
func (h *APIHandler) LyricsHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	text, err := h.lyrics.Get(r.Context(), songID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"song_id": songID, "lyrics": text})
}

func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.library.ListSongs(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	song, err := h.library.Song(r.Context(), songID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (h *APIHandler) ListGenresHandler(w http.ResponseWriter, r *http.Request) {
	genres, err := h.library.ListGenres(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

func (h *APIHandler) ListArtistsHandler(w http.ResponseWriter, r *http.Request) {
	artists, err := h.library.ListArtists(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

// SongAudioHandler streams the stored audio of a song.
func (h *APIHandler) SongAudioHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rc, song, err := h.library.OpenAudio(r.Context(), songID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", storage.ContentType(song.FilePath))
	if _, err := io.Copy(w, rc); err != nil {
		logger.Warn("[Audio] stream interrupted", logger.Int64("songId", songID), logger.ErrorField(err))
	}
}
