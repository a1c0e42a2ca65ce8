package controller

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/service"
	"github.com/rryowa/newsapp/internal/util"
)

const (
	maxThumbnailSize = 10 << 20
	sniffLen         = 512
)

var allowedThumbnails = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

type postsResponse struct {
	Posts  []models.Post `json:"posts"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// (GET /api/posts).
func (c *Controller) ListPosts(ctx echo.Context, params ListPostsParams) error {
	filter := models.PostFilter{}
	if params.Limit != nil {
		filter.Limit = *params.Limit
	}
	if params.Offset != nil {
		filter.Offset = *params.Offset
	}
	if params.Category != nil {
		filter.CategorySlug = *params.Category
	}

	posts, err := c.services.Posts.List(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, postsResponse{Posts: posts, Limit: filter.Limit, Offset: filter.Offset})
}

// (GET /api/posts/{id}).
func (c *Controller) GetPost(ctx echo.Context, id string) error {
	post, err := c.services.Posts.Get(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, post)
}

// (POST /api/posts), multipart/form-data.
func (c *Controller) CreatePost(ctx echo.Context) error {
	author, err := identity(ctx)
	if err != nil {
		return err
	}

	form, err := ctx.FormParams()
	if err != nil {
		return util.NewBadRequest("Invalid multipart form")
	}

	req := models.CreatePostRequest{
		Title:      form.Get("title"),
		Content:    form.Get("content"),
		Categories: append(form["categories"], form["categories[]"]...),
	}
	if d := form.Get("description"); d != "" {
		req.Description = &d
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	upload, closeFile, err := thumbnail(ctx)
	if err != nil {
		return err
	}
	defer closeFile()

	post, err := c.services.Posts.Create(ctx.Request().Context(), author, service.CreatePostInput{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Categories:  req.Categories,
		Thumbnail:   upload,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, post)
}

// (PATCH /api/posts/{id}).
func (c *Controller) UpdatePost(ctx echo.Context, id string) error {
	actor, err := identity(ctx)
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	post, err := c.services.Posts.Update(ctx.Request().Context(), actor, id, models.PostPatch{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Categories:  req.Categories,
		Published:   req.Published,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, post)
}

// (DELETE /api/posts/{id}).
func (c *Controller) DeletePost(ctx echo.Context, id string) error {
	actor, err := identity(ctx)
	if err != nil {
		return err
	}

	if err := c.services.Posts.Delete(ctx.Request().Context(), actor, id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// thumbnail opens the uploaded image after checking its size, extension and
// sniffed content type.
func thumbnail(ctx echo.Context) (models.Upload, func(), error) {
	invalid := func(msg string) error {
		return util.NewValidationError(util.FieldError{Field: "thumbnail", Message: msg})
	}

	fh, err := ctx.FormFile("thumbnail")
	if err != nil {
		return models.Upload{}, nil, invalid("Required")
	}
	if fh.Size > maxThumbnailSize {
		return models.Upload{}, nil, invalid("File size must be at most 10MB")
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	want, ok := allowedThumbnails[ext]
	if !ok {
		return models.Upload{}, nil, invalid("Only .png, .jpg and .jpeg files are allowed")
	}

	f, err := fh.Open()
	if err != nil {
		return models.Upload{}, nil, util.NewBadRequest("Cannot read thumbnail")
	}
	closeFile := func() { _ = f.Close() }

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		closeFile()
		return models.Upload{}, nil, util.NewBadRequest("Cannot read thumbnail")
	}
	if http.DetectContentType(head[:n]) != want {
		closeFile()
		return models.Upload{}, nil, invalid("File content does not match its extension")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		closeFile()
		return models.Upload{}, nil, util.NewBadRequest("Cannot read thumbnail")
	}

	return models.Upload{
		Body:        f,
		Size:        fh.Size,
		ContentType: want,
		Ext:         strings.TrimPrefix(ext, "."),
	}, closeFile, nil
}
