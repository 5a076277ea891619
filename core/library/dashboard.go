package library

import (
	"context"

	"tunex/core/access"
	"tunex/model"
)

// ListenerDashboard 普通用户首页：全部歌曲和自己的歌单
type ListenerDashboard struct {
	Username  string            `json:"username"`
	Songs     []*model.Song     `json:"songs"`
	Playlists []*model.Playlist `json:"playlists"`
}

// CreatorDashboard 创作者首页：曲风和自己上传的歌曲
type CreatorDashboard struct {
	Username string         `json:"username"`
	Blocked  bool           `json:"blocked"`
	Genres   []*model.Genre `json:"genres"`
	Songs    []*model.Song  `json:"songs"`
}

// AdminDashboard 管理员首页：所有用户和歌曲
type AdminDashboard struct {
	Username string        `json:"username"`
	Users    []*model.User `json:"users"`
	Songs    []*model.Song `json:"songs"`
}

func (s *Service) Listener(ctx context.Context, id access.Identity) (*ListenerDashboard, error) {
	if err := access.Require(id, access.ViewListenerDashboard); err != nil {
		return nil, err
	}
	songs, err := s.store.Songs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	playlists, err := s.store.Playlists.ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return &ListenerDashboard{Username: id.Username, Songs: songs, Playlists: playlists}, nil
}

func (s *Service) Creator(ctx context.Context, id access.Identity) (*CreatorDashboard, error) {
	if err := access.Require(id, access.ViewCreatorDashboard); err != nil {
		return nil, err
	}
	user, err := s.store.Users.GetByID(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	genres, err := s.store.Catalog.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	songs, err := s.store.Songs.ListByCreator(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return &CreatorDashboard{Username: id.Username, Blocked: user.Blocked, Genres: genres, Songs: songs}, nil
}

func (s *Service) Admin(ctx context.Context, id access.Identity) (*AdminDashboard, error) {
	if err := access.Require(id, access.ViewAdminDashboard); err != nil {
		return nil, err
	}
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	songs, err := s.store.Songs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminDashboard{Username: id.Username, Users: users, Songs: songs}, nil
}
