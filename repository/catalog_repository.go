package repository

import (
	"context"
	"strings"

	"tunex/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository 曲风与艺人
type CatalogRepository interface {
	ListGenres(ctx context.Context) ([]*model.Genre, error)
	GetGenre(ctx context.Context, id int64) (*model.Genre, error)
	ListArtists(ctx context.Context) ([]*model.Artist, error)
	EnsureArtists(ctx context.Context, names []string) ([]model.Artist, error)
}

type gormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository 创建 GORM 曲库仓库
func NewGormCatalogRepository(db *gorm.DB) CatalogRepository {
	return &gormCatalogRepository{db: db}
}

func (r *gormCatalogRepository) ListGenres(ctx context.Context) ([]*model.Genre, error) {
	var genres []*model.Genre
	err := r.db.WithContext(ctx).Order("name ASC").Find(&genres).Error
	return genres, translate(err, "list genres")
}

func (r *gormCatalogRepository) GetGenre(ctx context.Context, id int64) (*model.Genre, error) {
	var genre model.Genre
	if err := r.db.WithContext(ctx).First(&genre, id).Error; err != nil {
		return nil, translate(err, "genre %d", id)
	}
	return &genre, nil
}

func (r *gormCatalogRepository) ListArtists(ctx context.Context) ([]*model.Artist, error) {
	var artists []*model.Artist
	err := r.db.WithContext(ctx).Order("name ASC").Find(&artists).Error
	return artists, translate(err, "list artists")
}

// EnsureArtists returns the artists with the given names, creating missing ones.
func (r *gormCatalogRepository) EnsureArtists(ctx context.Context, names []string) ([]model.Artist, error) {
	db := r.db.WithContext(ctx)

	seen := make(map[string]bool)
	var wanted []model.Artist
	var clean []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		clean = append(clean, n)
		wanted = append(wanted, model.Artist{Name: n})
	}
	if len(clean) == 0 {
		return nil, nil
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&wanted).Error
	if err != nil {
		return nil, translate(err, "create artists")
	}

	var artists []model.Artist
	if err := db.Where("name IN ?", clean).Order("id ASC").Find(&artists).Error; err != nil {
		return nil, translate(err, "load artists")
	}
	return artists, nil
}
