package services

import (
	"bytes"
	"context"
	"image/color"
	"testing"
	"time"

	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/internal/testutil"
	"github.com/anonto42/yatube/backend/pkg/storage"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	stores   Stores
	store    *storage.LocalStorage
	media    *MediaService
	listing  *ListingService
	mutation *MutationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	store, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "/media/"})
	require.NoError(t, err)

	stores := Stores{
		Users:    repositories.NewGormUserRepository(db),
		Groups:   repositories.NewGormGroupRepository(db),
		Posts:    repositories.NewGormPostRepository(db),
		Comments: repositories.NewGormCommentRepository(db),
		Follows:  repositories.NewGormFollowRepository(db),
	}
	media := NewMediaService(store, nil)
	return &fixture{
		db:       db,
		stores:   stores,
		store:    store,
		media:    media,
		listing:  NewListingService(stores, media, nil),
		mutation: NewMutationService(stores, media, nil, nil),
	}
}

func principal(id uint, username string) Principal {
	return Principal{UserID: id, Username: username}
}

func (f *fixture) countPosts(t *testing.T) int64 {
	t.Helper()
	n, err := f.stores.Posts.CountPosts(context.Background(), repositories.PostFilter{})
	require.NoError(t, err)
	return n
}

// pngUpload renders a solid w x h PNG.
func pngUpload(t *testing.T, name string, w, h int) *ImageUpload {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return &ImageUpload{Filename: name, Body: &buf}
}
