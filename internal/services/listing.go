package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FilterKind selects one of the four post listings.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterGroup
	FilterAuthor
	FilterFollowing
)

// Filter names a listing. Slug is read for FilterGroup, Username for FilterAuthor.
type Filter struct {
	Kind     FilterKind
	Slug     string
	Username string
}

func AllPosts() Filter                { return Filter{Kind: FilterAll} }
func InGroup(slug string) Filter      { return Filter{Kind: FilterGroup, Slug: slug} }
func ByAuthor(username string) Filter { return Filter{Kind: FilterAuthor, Username: username} }
func FollowedAuthors() Filter         { return Filter{Kind: FilterFollowing} }

// Stores bundles the repositories the services read and write.
type Stores struct {
	Users    repositories.UserRepository
	Groups   repositories.GroupRepository
	Posts    repositories.PostRepository
	Comments repositories.CommentRepository
	Follows  repositories.FollowRepository
}

// URLResolver turns a stored image key into the address clients load it from.
type URLResolver interface {
	URL(key string) string
}

// Listing is the read side of the blog.
type Listing interface {
	ListPosts(ctx context.Context, p Principal, f Filter, page int) (*Page[models.Post], error)
	GroupPage(ctx context.Context, slug string, page int) (*GroupPage, error)
	Profile(ctx context.Context, p Principal, username string, page int) (*ProfilePage, error)
	PostDetail(ctx context.Context, postID string) (*PostDetail, error)
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
}

type GroupPage struct {
	Group *models.Group      `json:"group"`
	Posts *Page[models.Post] `json:"page_obj"`
}

type ProfilePage struct {
	Author    *models.User       `json:"author"`
	Posts     *Page[models.Post] `json:"page_obj"`
	PostCount int64              `json:"post_count"`
	Following bool               `json:"following"`
}

type PostDetail struct {
	Post      *models.Post     `json:"post"`
	Author    *models.User     `json:"author"`
	CountPost int64            `json:"count_post"`
	Comments  []models.Comment `json:"comments"`
}

// ListingService answers listing queries straight from the repositories.
type ListingService struct {
	stores Stores
	urls   URLResolver
	log    *zap.Logger
}

func NewListingService(stores Stores, urls URLResolver, log *zap.Logger) *ListingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ListingService{stores: stores, urls: urls, log: log}
}

func (s *ListingService) ListPosts(ctx context.Context, p Principal, f Filter, page int) (*Page[models.Post], error) {
	switch f.Kind {
	case FilterAll:
		return s.listPage(ctx, repositories.PostFilter{}, page)
	case FilterGroup:
		gp, err := s.GroupPage(ctx, f.Slug, page)
		if err != nil {
			return nil, err
		}
		return gp.Posts, nil
	case FilterAuthor:
		author, err := s.userByUsername(ctx, f.Username)
		if err != nil {
			return nil, err
		}
		return s.listPage(ctx, byAuthors(author.ID), page)
	case FilterFollowing:
		if !p.IsAuthenticated() {
			return nil, ErrUnauthenticated
		}
		ids, err := s.stores.Follows.GetFollowingIDs(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("load followed authors: %w", err)
		}
		return s.listPage(ctx, byAuthors(ids...), page)
	default:
		return nil, fmt.Errorf("unknown listing filter %d", f.Kind)
	}
}

func (s *ListingService) GroupPage(ctx context.Context, slug string, page int) (*GroupPage, error) {
	group, err := s.stores.Groups.GetGroupBySlug(ctx, slug)
	if err != nil {
		return nil, lookupErr("group", err)
	}
	posts, err := s.listPage(ctx, repositories.PostFilter{GroupID: &group.ID}, page)
	if err != nil {
		return nil, err
	}
	return &GroupPage{Group: group, Posts: posts}, nil
}

func (s *ListingService) Profile(ctx context.Context, p Principal, username string, page int) (*ProfilePage, error) {
	author, err := s.userByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	posts, err := s.listPage(ctx, byAuthors(author.ID), page)
	if err != nil {
		return nil, err
	}

	profile := &ProfilePage{Author: author, Posts: posts, PostCount: posts.Count}
	if p.IsAuthenticated() && p.UserID != author.ID {
		profile.Following, err = s.stores.Follows.IsFollowing(ctx, p.UserID, author.ID)
		if err != nil {
			return nil, fmt.Errorf("check follow: %w", err)
		}
	}
	return profile, nil
}

func (s *ListingService) PostDetail(ctx context.Context, postID string) (*PostDetail, error) {
	post, err := s.stores.Posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, lookupErr("post", err)
	}

	detail := &PostDetail{}
	posts := []models.Post{*post}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.hydrate(gctx, posts)
	})
	g.Go(func() error {
		comments, err := s.ListComments(gctx, post.ID)
		detail.Comments = comments
		return err
	})
	g.Go(func() error {
		n, err := s.stores.Posts.CountPosts(gctx, byAuthors(post.AuthorID))
		if err != nil {
			return fmt.Errorf("count author posts: %w", err)
		}
		detail.CountPost = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detail.Post = &posts[0]
	detail.Author = detail.Post.Author
	return detail, nil
}

func (s *ListingService) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	comments, err := s.stores.Comments.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

func (s *ListingService) listPage(ctx context.Context, filter repositories.PostFilter, requested int) (*Page[models.Post], error) {
	count, err := s.stores.Posts.CountPosts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	number, numPages, offset := pageWindow(count, requested, PageSize)

	var posts []models.Post
	if count > 0 {
		posts, err = s.stores.Posts.FindPosts(ctx, filter, offset, PageSize)
		if err != nil {
			return nil, fmt.Errorf("find posts: %w", err)
		}
		if err := s.hydrate(ctx, posts); err != nil {
			return nil, err
		}
	}
	return newPage(posts, count, number, numPages, PageSize), nil
}

// hydrate attaches authors, groups and image URLs with one lookup per kind.
func (s *ListingService) hydrate(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	authorIDs := make([]uint, 0, len(posts))
	groupIDs := make([]uint, 0, len(posts))
	seenAuthor := make(map[uint]bool)
	seenGroup := make(map[uint]bool)
	for _, p := range posts {
		if !seenAuthor[p.AuthorID] {
			seenAuthor[p.AuthorID] = true
			authorIDs = append(authorIDs, p.AuthorID)
		}
		if p.GroupID != nil && !seenGroup[*p.GroupID] {
			seenGroup[*p.GroupID] = true
			groupIDs = append(groupIDs, *p.GroupID)
		}
	}

	var (
		authors map[uint]*models.User
		groups  map[uint]*models.Group
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		authors, err = s.stores.Users.GetUsersByIDs(gctx, authorIDs)
		return err
	})
	if len(groupIDs) > 0 {
		g.Go(func() (err error) {
			groups, err = s.stores.Groups.GetGroupsByIDs(gctx, groupIDs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("hydrate posts: %w", err)
	}

	for i := range posts {
		p := &posts[i]
		if u, ok := authors[p.AuthorID]; ok {
			p.Author = u.Public()
		} else {
			s.log.Warn("post author missing", zap.String("post_id", p.ID), zap.Uint("author_id", p.AuthorID))
		}
		if p.GroupID != nil {
			p.Group = groups[*p.GroupID]
		}
		if p.Image != "" && s.urls != nil {
			p.ImageURL = s.urls.URL(p.Image)
		}
	}
	return nil
}

func (s *ListingService) userByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := s.stores.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, lookupErr("user", err)
	}
	return u, nil
}

func byAuthors(ids ...uint) repositories.PostFilter {
	return repositories.PostFilter{ByAuthors: true, AuthorIDs: ids}
}

// lookupErr maps a repository miss onto ErrNotFound and wraps anything else.
func lookupErr(what string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", what, err)
}
