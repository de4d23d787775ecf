package services

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupListingPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, f.db, "leo")
	group := testutil.CreateGroup(t, f.db, "Test group", "test-slug")
	other := testutil.CreateGroup(t, f.db, "Other", "other")
	created := testutil.CreatePosts(t, f.db, author, group, 13, base)
	testutil.CreatePosts(t, f.db, author, other, 2, base.Add(-24*time.Hour))

	first, err := f.listing.ListPosts(ctx, Anonymous, InGroup("test-slug"), 1)
	require.NoError(t, err)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, 2, first.NumPages)
	assert.EqualValues(t, 13, first.Count)
	assert.True(t, first.HasNext)
	assert.Equal(t, created[12].ID, first.Items[0].ID)

	second, err := f.listing.ListPosts(ctx, Anonymous, InGroup("test-slug"), 2)
	require.NoError(t, err)
	assert.Len(t, second.Items, 3)
	assert.Equal(t, 2, second.Number)
	assert.False(t, second.HasNext)
	assert.True(t, second.HasPrevious)

	third, err := f.listing.ListPosts(ctx, Anonymous, InGroup("test-slug"), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Number)
	require.Len(t, third.Items, 3)
	for i := range third.Items {
		assert.Equal(t, second.Items[i].ID, third.Items[i].ID)
	}

	for _, p := range append(first.Items, second.Items...) {
		require.NotNil(t, p.Group)
		assert.Equal(t, "test-slug", p.Group.Slug)
		require.NotNil(t, p.Author)
		assert.Equal(t, "leo", p.Author.Username)
	}
}

func TestListPostsHomeOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")
	ann := testutil.CreateUser(t, f.db, "ann")
	testutil.CreatePosts(t, f.db, leo, nil, 4, base)
	testutil.CreatePosts(t, f.db, ann, nil, 4, base.Add(2*time.Second))

	page, err := f.listing.ListPosts(ctx, Anonymous, AllPosts(), 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 8)
	for i := 1; i < len(page.Items); i++ {
		assert.False(t, page.Items[i].CreatedAt.After(page.Items[i-1].CreatedAt))
	}
	assert.Nil(t, page.Items[0].Group)
}

func TestListPostsEmpty(t *testing.T) {
	f := newFixture(t)

	page, err := f.listing.ListPosts(context.Background(), Anonymous, AllPosts(), 4)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.NumPages)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestListPostsUnknownTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.listing.ListPosts(ctx, Anonymous, InGroup("nope"), 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.listing.ListPosts(ctx, Anonymous, ByAuthor("ghost"), 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.listing.PostDetail(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPostsByAuthor(t *testing.T) {
	f := newFixture(t)
	leo := testutil.CreateUser(t, f.db, "leo")
	ann := testutil.CreateUser(t, f.db, "ann")
	testutil.CreatePosts(t, f.db, leo, nil, 3, base)
	testutil.CreatePosts(t, f.db, ann, nil, 12, base)

	page, err := f.listing.ListPosts(context.Background(), Anonymous, ByAuthor("ann"), 2)
	require.NoError(t, err)
	assert.EqualValues(t, 12, page.Count)
	assert.Len(t, page.Items, 2)
	for _, p := range page.Items {
		assert.Equal(t, ann.ID, p.AuthorID)
	}
}

func TestFollowingFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader := testutil.CreateUser(t, f.db, "reader")
	leo := testutil.CreateUser(t, f.db, "leo")
	ann := testutil.CreateUser(t, f.db, "ann")
	testutil.CreatePosts(t, f.db, leo, nil, 2, base)
	testutil.CreatePosts(t, f.db, ann, nil, 3, base)
	me := principal(reader.ID, reader.Username)

	_, err := f.listing.ListPosts(ctx, Anonymous, FollowedAuthors(), 1)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	page, err := f.listing.ListPosts(ctx, me, FollowedAuthors(), 1)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Number)

	require.NoError(t, f.mutation.Follow(ctx, me, "leo"))
	page, err = f.listing.ListPosts(ctx, me, FollowedAuthors(), 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	for _, p := range page.Items {
		assert.Equal(t, leo.ID, p.AuthorID)
	}

	other, err := f.listing.ListPosts(ctx, principal(ann.ID, "ann"), FollowedAuthors(), 1)
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestPostDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")
	ann := testutil.CreateUser(t, f.db, "ann")
	group := testutil.CreateGroup(t, f.db, "Cats", "cats")
	posts := testutil.CreatePosts(t, f.db, leo, group, 3, base)

	for _, text := range []string{"first", "second"} {
		_, err := f.mutation.AddComment(ctx, principal(ann.ID, "ann"), posts[0].ID, text)
		require.NoError(t, err)
	}

	detail, err := f.listing.PostDetail(ctx, posts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, posts[0].ID, detail.Post.ID)
	assert.EqualValues(t, 3, detail.CountPost)
	require.NotNil(t, detail.Author)
	assert.Equal(t, "leo", detail.Author.Username)
	require.NotNil(t, detail.Post.Group)
	assert.Equal(t, "cats", detail.Post.Group.Slug)

	require.Len(t, detail.Comments, 2)
	assert.Equal(t, "first", detail.Comments[0].Text)
	assert.Equal(t, "second", detail.Comments[1].Text)
	require.NotNil(t, detail.Comments[0].Author)
	assert.Equal(t, "ann", detail.Comments[0].Author.Username)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")
	ann := testutil.CreateUser(t, f.db, "ann")
	testutil.CreatePosts(t, f.db, leo, nil, 11, base)

	profile, err := f.listing.Profile(ctx, Anonymous, "leo", 1)
	require.NoError(t, err)
	assert.Equal(t, leo.ID, profile.Author.ID)
	assert.EqualValues(t, 11, profile.PostCount)
	assert.Len(t, profile.Posts.Items, 10)
	assert.False(t, profile.Following)

	annP := principal(ann.ID, "ann")
	require.NoError(t, f.mutation.Follow(ctx, annP, "leo"))
	profile, err = f.listing.Profile(ctx, annP, "leo", 1)
	require.NoError(t, err)
	assert.True(t, profile.Following)

	self, err := f.listing.Profile(ctx, principal(leo.ID, "leo"), "leo", 1)
	require.NoError(t, err)
	assert.False(t, self.Following)

	_, err = f.listing.Profile(ctx, Anonymous, "ghost", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListingResolvesImageURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	leo := testutil.CreateUser(t, f.db, "leo")

	post, err := f.mutation.CreatePost(ctx, principal(leo.ID, "leo"), PostInput{
		Text:  "with picture",
		Image: pngUpload(t, "small.png", 8, 8),
	})
	require.NoError(t, err)

	page, err := f.listing.ListPosts(ctx, Anonymous, AllPosts(), 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "/media/"+post.Image, page.Items[0].ImageURL)
	assert.Empty(t, page.Items[0].Author.Email)
}

func TestPostsHydratedWithoutBackReferences(t *testing.T) {
	f := newFixture(t)
	leo := testutil.CreateUser(t, f.db, "leo")
	testutil.CreatePosts(t, f.db, leo, nil, 2, base)

	page, err := f.listing.ListPosts(context.Background(), Anonymous, AllPosts(), 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, page.Items[0].Author, page.Items[1].Author)
	assert.Equal(t, &models.User{ID: leo.ID, Username: "leo", CreatedAt: page.Items[0].Author.CreatedAt}, page.Items[0].Author)
}
