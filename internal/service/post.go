package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/storage/media"
	"github.com/rryowa/newsapp/internal/util"
)

type CreatePostInput struct {
	Title       string
	Description *string
	Content     string
	Categories  []string
	Thumbnail   models.Upload
}

type PostService struct {
	posts      storage.PostRepository
	categories storage.CategoryRepository
	media      storage.MediaStore
	folder     string
	log        *zap.SugaredLogger
}

func NewPostService(
	posts storage.PostRepository,
	categories storage.CategoryRepository,
	mediaStore storage.MediaStore,
	folder string,
	log *zap.SugaredLogger,
) *PostService {
	return &PostService{
		posts:      posts,
		categories: categories,
		media:      mediaStore,
		folder:     folder,
		log:        log,
	}
}

func (s *PostService) List(ctx context.Context, filter models.PostFilter) ([]models.Post, error) {
	if filter.Limit <= 0 {
		filter.Limit = models.DefaultPageLimit
	}
	if filter.Limit > models.MaxPageLimit {
		filter.Limit = models.MaxPageLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.posts.ListPosts(ctx, filter)
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	if err := checkID(id); err != nil {
		return nil, util.NewNotFound("Post not found")
	}
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return nil, postErr(err)
	}
	return post, nil
}

// Create uploads the thumbnail and then stores the post. The object is removed
// again if the post cannot be saved.
func (s *PostService) Create(ctx context.Context, author models.Identity, in CreatePostInput) (*models.Post, error) {
	categories, err := s.checkCategories(ctx, in.Categories)
	if err != nil {
		return nil, err
	}

	key := media.ThumbnailKey(s.folder, in.Thumbnail.Ext)
	url, err := s.media.Upload(ctx, key, in.Thumbnail.ContentType, in.Thumbnail.Body, in.Thumbnail.Size)
	if err != nil {
		s.log.Errorw("Thumbnail upload failed", "key", key, "error", err)
		return nil, util.NewBadRequest("Thumbnail upload failed")
	}

	post, err := s.posts.CreatePost(ctx, models.Post{
		Title:        strings.TrimSpace(in.Title),
		Slug:         postSlug(in.Title),
		Description:  in.Description,
		Content:      in.Content,
		AuthorID:     author.UserID,
		Categories:   categories,
		ThumbnailURL: url,
		ThumbnailKey: key,
		Published:    true,
	})
	if err != nil {
		s.removeThumbnail(context.WithoutCancel(ctx), key)
		return nil, postErr(err)
	}

	s.log.Infow("Post created", "id", post.ID, "author", author.UserID)
	return post, nil
}

func (s *PostService) Update(ctx context.Context, actor models.Identity, id string, patch models.PostPatch) (*models.Post, error) {
	post, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		post.Title = strings.TrimSpace(*patch.Title)
		post.Slug = postSlug(post.Title)
	}
	if patch.Description != nil {
		post.Description = patch.Description
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.Published != nil {
		post.Published = *patch.Published
	}
	if patch.Categories != nil {
		categories, err := s.checkCategories(ctx, patch.Categories)
		if err != nil {
			return nil, err
		}
		post.Categories = categories
	}

	updated, err := s.posts.UpdatePost(ctx, *post)
	if err != nil {
		return nil, postErr(err)
	}
	return updated, nil
}

func (s *PostService) Delete(ctx context.Context, actor models.Identity, id string) error {
	post, err := s.editable(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, id); err != nil {
		return postErr(err)
	}
	if post.ThumbnailKey != "" {
		s.removeThumbnail(ctx, post.ThumbnailKey)
	}
	s.log.Infow("Post deleted", "id", id, "by", actor.UserID)
	return nil
}

// editable loads the post and checks that actor is its author or an editor.
func (s *PostService) editable(ctx context.Context, actor models.Identity, id string) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.UserID && !actor.HasRole(models.RoleEditor, models.RoleAdmin) {
		return nil, util.NewForbidden("You are not allowed to modify this post")
	}
	return post, nil
}

func (s *PostService) checkCategories(ctx context.Context, ids []string) ([]string, error) {
	invalid := util.NewValidationError(util.FieldError{Field: "categories", Message: "Invalid categories"})

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if checkID(id) != nil {
			return nil, invalid
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, util.NewValidationError(util.FieldError{Field: "categories", Message: "At least one category is required"})
	}

	n, err := s.categories.CountCategories(ctx, unique)
	if err != nil {
		return nil, err
	}
	if n != len(unique) {
		return nil, invalid
	}
	return unique, nil
}

func (s *PostService) removeThumbnail(ctx context.Context, key string) {
	if err := s.media.Delete(ctx, key); err != nil {
		s.log.Warnw("Failed to delete thumbnail", "key", key, "error", err)
	}
}

func postErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrPostNotFound):
		return util.NewNotFound("Post not found")
	case errors.Is(err, storage.ErrDuplicate):
		return util.NewValidationError(util.FieldError{Field: "title", Message: "Post already exists"})
	default:
		return err
	}
}

func postSlug(title string) string {
	return slug.Make(title) + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}
