package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newMongoRepo connects to MONGO_TEST_URI and uses a throwaway database.
func newMongoRepo(t *testing.T) *MongoPostRepository {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := client.Database("yatube_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	repo := NewMongoPostRepository(db)
	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func TestMongoPostRepository(t *testing.T) {
	repo := newMongoRepo(t)
	ctx := context.Background()
	group := uint(7)

	var ids []string
	for i := 0; i < 12; i++ {
		p := &models.Post{
			ID:        uuid.NewString(),
			Text:      "mongo post",
			AuthorID:  uint(1 + i%2),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if i%3 == 0 {
			p.GroupID = &group
		}
		require.NoError(t, repo.CreatePost(ctx, p))
		ids = append(ids, p.ID)
	}

	total, err := repo.CountPosts(ctx, PostFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)

	page, err := repo.FindPosts(ctx, PostFilter{}, 10, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[1], page[0].ID)
	assert.Equal(t, ids[0], page[1].ID)

	inGroup, err := repo.CountPosts(ctx, PostFilter{GroupID: &group})
	require.NoError(t, err)
	assert.EqualValues(t, 4, inGroup)

	byAuthor, err := repo.FindPosts(ctx, PostFilter{ByAuthors: true, AuthorIDs: []uint{2}}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, byAuthor, 6)

	post, err := repo.GetPostByID(ctx, ids[0])
	require.NoError(t, err)
	post.Text = "edited"
	post.GroupID = nil
	require.NoError(t, repo.UpdatePost(ctx, post))

	got, err := repo.GetPostByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Equal(t, uint(1), got.AuthorID)

	_, err = repo.GetPostByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
