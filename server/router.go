package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires every endpoint onto a gorilla/mux router.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(requestLogMiddleware)

	auth := h.AuthMiddleware

	// 用户认证
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/logout", auth(h.LogoutHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/password", auth(h.ChangePasswordHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/me", auth(h.GetProfileHandler)).Methods(http.MethodGet)

	// 首页
	router.HandleFunc("/dashboard/user", auth(h.UserDashboardHandler)).Methods(http.MethodGet)
	router.HandleFunc("/dashboard/creator", auth(h.CreatorDashboardHandler)).Methods(http.MethodGet)
	router.HandleFunc("/dashboard/admin", auth(h.AdminDashboardHandler)).Methods(http.MethodGet)

	// 创作者
	router.HandleFunc("/creator/upload", auth(h.UploadSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/creator/edit/{id:[0-9]+}", auth(h.EditSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/creator/delete/{id:[0-9]+}", auth(h.DeleteOwnSongHandler)).Methods(http.MethodPost)

	// 歌单
	router.HandleFunc("/playlist/create", auth(h.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/playlist/rename/{id:[0-9]+}", auth(h.RenamePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/playlist/add", auth(h.AddToPlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/playlist/remove", auth(h.RemoveFromPlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/playlist/reorder/{id:[0-9]+}", auth(h.ReorderPlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/playlist/delete/{id:[0-9]+}", auth(h.DeletePlaylistHandler)).Methods(http.MethodPost)
	router.HandleFunc("/playlist/{id:[0-9]+}", auth(h.GetPlaylistHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playlists", auth(h.ListPlaylistsHandler)).Methods(http.MethodGet)

	// 管理员
	router.HandleFunc("/admin/block/user/{id:[0-9]+}", auth(h.BlockUserHandler)).Methods(http.MethodPost)
	router.HandleFunc("/admin/unblock/user/{id:[0-9]+}", auth(h.UnblockUserHandler)).Methods(http.MethodPost)
	router.HandleFunc("/admin/delete/song/{id:[0-9]+}", auth(h.AdminDeleteSongHandler)).Methods(http.MethodPost)

	// 曲库
	router.HandleFunc("/api/songs", auth(h.ListSongsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/song/{id:[0-9]+}", auth(h.GetSongHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/song/{id:[0-9]+}/play", auth(h.PlaySongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/song/{id:[0-9]+}/lyrics", auth(h.LyricsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/song/{id:[0-9]+}/audio", auth(h.SongAudioHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/genres", auth(h.ListGenresHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/artists", auth(h.ListArtistsHandler)).Methods(http.MethodGet)

	// 通知
	router.HandleFunc("/api/notifications", auth(h.ListNotificationsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/ws/notifications", auth(h.NotificationSocketHandler)).Methods(http.MethodGet)

	router.Handle("/media/{key:.+}", NewMediaHandler(h.sink)).Methods(http.MethodGet, http.MethodHead)

	return router
}
