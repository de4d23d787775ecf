package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/anonto42/yatube/backend/internal/validators"
	"go.uber.org/zap"
)

const invalidGroupMsg = "Select a valid choice. That choice is not one of the available choices."

// PostInput is a submitted post form.
type PostInput struct {
	Text    string
	GroupID *uint
	// Image replaces the current image when set.
	Image *ImageUpload
	// ClearImage drops the current image when no new one is uploaded.
	ClearImage bool
}

// MutationService performs every write of the blog on behalf of a principal.
type MutationService struct {
	stores      Stores
	media       *MediaService
	invalidator PostCacheInvalidator
	log         *zap.Logger
}

// NewMutationService wires the write side. invalidator may be nil when no page cache runs.
func NewMutationService(stores Stores, media *MediaService, invalidator PostCacheInvalidator, log *zap.Logger) *MutationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MutationService{stores: stores, media: media, invalidator: invalidator, log: log}
}

func (s *MutationService) CreatePost(ctx context.Context, p Principal, in PostInput) (*models.Post, error) {
	if !CanCreate(p) {
		return nil, ErrUnauthenticated
	}

	verrs := &validators.ValidationError{}
	post, err := models.NewPost(p.UserID, in.Text, in.GroupID)
	if err != nil && !collect(verrs, err) {
		return nil, err
	}
	img, err := s.checkPostInput(ctx, in, verrs)
	if err != nil {
		return nil, err
	}
	if !verrs.Empty() {
		return nil, verrs
	}

	if img != nil {
		if post.Image, err = s.media.Store(ctx, img); err != nil {
			return nil, err
		}
	}
	if err := s.stores.Posts.CreatePost(ctx, post); err != nil {
		s.media.Delete(ctx, post.Image)
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.invalidate(ctx)
	s.log.Info("post created",
		zap.String("post_id", post.ID),
		zap.Uint("author_id", post.AuthorID),
	)
	return post, nil
}

func (s *MutationService) UpdatePost(ctx context.Context, p Principal, postID string, in PostInput) (*models.Post, error) {
	if !p.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	post, err := s.stores.Posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, lookupErr("post", err)
	}
	if !CanEdit(p, post) {
		s.log.Info("post edit refused",
			zap.String("post_id", post.ID),
			zap.Uint("user_id", p.UserID),
		)
		return nil, ErrForbidden
	}

	verrs := &validators.ValidationError{}
	if err := post.Edit(in.Text, in.GroupID); err != nil && !collect(verrs, err) {
		return nil, err
	}
	img, err := s.checkPostInput(ctx, in, verrs)
	if err != nil {
		return nil, err
	}
	if !verrs.Empty() {
		return nil, verrs
	}

	oldImage := post.Image
	switch {
	case img != nil:
		if post.Image, err = s.media.Store(ctx, img); err != nil {
			return nil, err
		}
	case in.ClearImage:
		post.Image = ""
	}

	if err := s.stores.Posts.UpdatePost(ctx, post); err != nil {
		if post.Image != oldImage {
			s.media.Delete(ctx, post.Image)
		}
		return nil, lookupErr("post", err)
	}
	if oldImage != post.Image {
		s.media.Delete(ctx, oldImage)
	}

	s.invalidate(ctx)
	s.log.Info("post updated", zap.String("post_id", post.ID))
	return post, nil
}

func (s *MutationService) AddComment(ctx context.Context, p Principal, postID, text string) (*models.Comment, error) {
	if !CanCreate(p) {
		return nil, ErrUnauthenticated
	}
	post, err := s.stores.Posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, lookupErr("post", err)
	}

	comment, err := models.NewComment(post.ID, p.UserID, text)
	if err != nil {
		return nil, err
	}
	if err := s.stores.Comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.log.Info("comment added",
		zap.String("post_id", post.ID),
		zap.Uint("comment_id", comment.ID),
	)
	return comment, nil
}

// Follow subscribes p to username. Following yourself or someone already followed does nothing.
func (s *MutationService) Follow(ctx context.Context, p Principal, username string) error {
	if !p.IsAuthenticated() {
		return ErrUnauthenticated
	}
	author, err := s.stores.Users.GetUserByUsername(ctx, username)
	if err != nil {
		return lookupErr("user", err)
	}
	if author.ID == p.UserID {
		return nil
	}

	follow, err := models.NewFollow(p.UserID, author.ID)
	if err != nil {
		return err
	}
	created, err := s.stores.Follows.CreateFollow(ctx, follow)
	if err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	if created {
		s.log.Info("follow created", zap.Uint("user_id", p.UserID), zap.Uint("author_id", author.ID))
	}
	return nil
}

// Unfollow removes the subscription if there is one. Unknown usernames are ignored.
func (s *MutationService) Unfollow(ctx context.Context, p Principal, username string) error {
	if !p.IsAuthenticated() {
		return ErrUnauthenticated
	}
	author, err := s.stores.Users.GetUserByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	removed, err := s.stores.Follows.DeleteFollow(ctx, p.UserID, author.ID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	if removed {
		s.log.Info("follow removed", zap.Uint("user_id", p.UserID), zap.Uint("author_id", author.ID))
	}
	return nil
}

// checkPostInput validates the group reference and decodes the image, recording
// field problems in verrs.
func (s *MutationService) checkPostInput(ctx context.Context, in PostInput, verrs *validators.ValidationError) (*Image, error) {
	if in.GroupID != nil {
		_, err := s.stores.Groups.GetGroupByID(ctx, *in.GroupID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			verrs.Add("group", invalidGroupMsg)
		case err != nil:
			return nil, fmt.Errorf("load group: %w", err)
		}
	}

	if in.Image == nil {
		return nil, nil
	}
	img, err := s.media.Decode(in.Image)
	if err != nil && !collect(verrs, err) {
		return nil, err
	}
	return img, nil
}

func (s *MutationService) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.InvalidatePosts(ctx)
	}
}

// collect merges a validation failure into verrs and reports whether err was one.
func collect(verrs *validators.ValidationError, err error) bool {
	var ve *validators.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	for field, msg := range ve.Fields {
		verrs.Add(field, msg)
	}
	return true
}
