package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestPostRepositoryOrdersNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "leo")
	created := testutil.CreatePosts(t, db, author, nil, 5, base)

	repo := NewGormPostRepository(db)
	posts, err := repo.FindPosts(ctx, PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 5)

	for i, p := range posts {
		assert.Equal(t, created[len(created)-1-i].ID, p.ID)
	}
	for i := 1; i < len(posts); i++ {
		assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt))
	}
}

func TestPostRepositoryFilters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, db, "leo")
	ann := testutil.CreateUser(t, db, "ann")
	cats := testutil.CreateGroup(t, db, "Cats", "cats")
	testutil.CreatePosts(t, db, leo, cats, 3, base)
	testutil.CreatePosts(t, db, ann, nil, 2, base)

	repo := NewGormPostRepository(db)

	count, err := repo.CountPosts(ctx, PostFilter{GroupID: &cats.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	count, err = repo.CountPosts(ctx, PostFilter{ByAuthors: true, AuthorIDs: []uint{ann.ID}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = repo.CountPosts(ctx, PostFilter{ByAuthors: true})
	require.NoError(t, err)
	assert.Zero(t, count)

	posts, err := repo.FindPosts(ctx, PostFilter{ByAuthors: true}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)

	posts, err = repo.FindPosts(ctx, PostFilter{}, 3, 10)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestPostRepositoryUpdateKeepsAuthorAndCreatedAt(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, db, "leo")
	cats := testutil.CreateGroup(t, db, "Cats", "cats")
	post := testutil.CreatePosts(t, db, leo, nil, 1, base)[0]

	repo := NewGormPostRepository(db)
	edited := *post
	edited.Text = "edited"
	edited.GroupID = &cats.ID
	edited.Image = "posts/x.png"
	edited.AuthorID = 999
	edited.CreatedAt = base.Add(time.Hour)
	require.NoError(t, repo.UpdatePost(ctx, &edited))

	got, err := repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	require.NotNil(t, got.GroupID)
	assert.Equal(t, cats.ID, *got.GroupID)
	assert.Equal(t, "posts/x.png", got.Image)
	assert.Equal(t, leo.ID, got.AuthorID)
	assert.True(t, got.CreatedAt.Equal(base))

	edited.GroupID = nil
	require.NoError(t, repo.UpdatePost(ctx, &edited))
	got, err = repo.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)
}

func TestPostRepositoryNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGormPostRepository(db)

	_, err := repo.GetPostByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.UpdatePost(context.Background(), &models.Post{ID: "missing", Text: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCommentRepositoryOldestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, db, "leo")
	post := testutil.CreatePosts(t, db, leo, nil, 1, base)[0]

	repo := NewGormCommentRepository(db)
	for i, text := range []string{"first", "second", "third"} {
		c := &models.Comment{PostID: post.ID, AuthorID: leo.ID, Text: text, CreatedAt: base.Add(time.Duration(3-i) * time.Minute)}
		require.NoError(t, repo.CreateComment(ctx, c))
	}

	comments, err := repo.GetCommentsByPostID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{comments[0].Text, comments[1].Text, comments[2].Text})
	require.NotNil(t, comments[0].Author)
	assert.Equal(t, "leo", comments[0].Author.Username)

	count, err := repo.CountComments(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestFollowRepositoryIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, db, "leo")
	ann := testutil.CreateUser(t, db, "ann")
	repo := NewGormFollowRepository(db)

	created, err := repo.CreateFollow(ctx, &models.Follow{UserID: leo.ID, AuthorID: ann.ID})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateFollow(ctx, &models.Follow{UserID: leo.ID, AuthorID: ann.ID})
	require.NoError(t, err)
	assert.False(t, created)

	count, err := repo.CountFollows(ctx, leo.ID, ann.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	ids, err := repo.GetFollowingIDs(ctx, leo.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{ann.ID}, ids)

	removed, err := repo.DeleteFollow(ctx, leo.ID, ann.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteFollow(ctx, leo.ID, ann.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFollowRepositoryConcurrentCreates(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, db, "leo")
	ann := testutil.CreateUser(t, db, "ann")
	repo := NewGormFollowRepository(db)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateFollow(ctx, &models.Follow{UserID: leo.ID, AuthorID: ann.ID})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	count, err := repo.CountFollows(ctx, leo.ID, ann.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUserAndGroupLookups(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, db, "leo")
	cats := testutil.CreateGroup(t, db, "Cats", "cats")

	users := NewGormUserRepository(db)
	got, err := users.GetUserByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, leo.ID, got.ID)

	_, err = users.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	err = users.CreateUser(ctx, &models.User{Username: "leo", Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	byID, err := users.GetUsersByIDs(ctx, []uint{leo.ID, 404})
	require.NoError(t, err)
	assert.Len(t, byID, 1)
	assert.Equal(t, "leo", byID[leo.ID].Username)

	groups := NewGormGroupRepository(db)
	g, err := groups.GetGroupBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, cats.ID, g.ID)

	_, err = groups.GetGroupBySlug(ctx, "dogs")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := groups.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
