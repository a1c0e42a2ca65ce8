package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/util"
)

var postColumns = []string{
	"id", "title", "slug", "description", "content", "author_id",
	"thumbnail_url", "thumbnail_key", "published", "created_at", "updated_at", "categories",
}

func TestCreatePost_LinksCategoriesInTx(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`^INSERT INTO posts`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`^INSERT INTO post_categories \(post_id, category_id\) SELECT \$1, unnest\(\$2::uuid\[\]\)$`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	post, err := repo.CreatePost(context.Background(), models.Post{
		Title:      "Hello world",
		Slug:       "hello-world",
		Content:    "body text",
		AuthorID:   "u1",
		Categories: []string{"c1", "c2"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, now, post.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePost_RollsBackOnLinkFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO posts`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO post_categories`).
		WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	_, err := repo.CreatePost(context.Background(), models.Post{Categories: []string{"c1"}})
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindStorage))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPostByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(postColumns).
		AddRow("p1", "Hello world", "hello-world", nil, "body text", "u1", "https://cdn/x.png", "k", true, now, now, "{c1,c2}")
	mock.ExpectQuery(`WHERE p.id = \$1 GROUP BY p.id`).
		WithArgs("p1").
		WillReturnRows(rows)

	post, err := repo.GetPostByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, post.Description)
	assert.Equal(t, []string{"c1", "c2"}, post.Categories)
	assert.Equal(t, "u1", post.AuthorID)
}

func TestListPosts_FiltersByCategory(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(postColumns).
		AddRow("p1", "Hello world", "hello-world", "short text", "body text", "u1", "", "", true, now, now, "{c1}")
	mock.ExpectQuery(`(?s)c.slug = \$1.*LIMIT \$2 OFFSET \$3`).
		WithArgs("tech", 20, 0).
		WillReturnRows(rows)

	posts, err := repo.ListPosts(context.Background(), models.PostFilter{
		CategorySlug: "tech",
		Page:         models.Page{Limit: 20},
	})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.NotNil(t, posts[0].Description)
	assert.Equal(t, "short text", *posts[0].Description)
}

func TestDeletePost_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectExec(`^DELETE FROM posts WHERE id = \$1$`).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeletePost(context.Background(), "p1")
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
}
