package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-feed/internal/domain"
	"social-feed/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "feed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRepos(t *testing.T) (repository.UserRepository, repository.PostRepository) {
	t.Helper()
	db := openTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	ctx := context.Background()
	require.NoError(t, users.Init(ctx))
	require.NoError(t, posts.Init(ctx))
	return users, posts
}

func testUser(email string) *domain.User {
	return &domain.User{
		ID:           uuid.NewString(),
		Name:         "Max",
		Email:        email,
		PasswordHash: "$2a$12$fakehash",
		Status:       domain.DefaultStatus,
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	user := testUser("max@example.com")
	require.NoError(t, users.Create(ctx, user))

	byEmail, err := users.GetByEmail(ctx, "max@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, domain.DefaultStatus, byEmail.Status)

	byID, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "max@example.com", byID.Email)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, testUser("dup@example.com")))

	err := users.Create(ctx, testUser("dup@example.com"))
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestUserRepository_Status(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	user := testUser("s@example.com")
	require.NoError(t, users.Create(ctx, user))

	require.NoError(t, users.UpdateStatus(ctx, user.ID, "busy hacking"))
	got, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "busy hacking", got.Status)

	assert.ErrorIs(t, users.UpdateStatus(ctx, "missing", "x"), repository.ErrNotFound)
}

func TestUserRepository_PostReferences(t *testing.T) {
	users, _ := newTestRepos(t)
	ctx := context.Background()

	user := testUser("refs@example.com")
	require.NoError(t, users.Create(ctx, user))

	require.NoError(t, users.AppendPost(ctx, user.ID, "p1"))
	require.NoError(t, users.AppendPost(ctx, user.ID, "p2"))
	require.NoError(t, users.AppendPost(ctx, user.ID, "p3"))

	ids, err := users.ListPostIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids)

	require.NoError(t, users.RemovePost(ctx, user.ID, "p2"))
	// removing an absent reference is a no-op
	require.NoError(t, users.RemovePost(ctx, user.ID, "p2"))

	ids, err = users.ListPostIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3"}, ids)
}

func testPost(title, creatorID string, createdAt time.Time) *domain.Post {
	return &domain.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   "some content",
		ImageURL:  "images/x.png",
		CreatorID: creatorID,
		CreatedAt: createdAt,
	}
}

func TestPostRepository_CRUDRoundTrip(t *testing.T) {
	_, posts := newTestRepos(t)
	ctx := context.Background()

	post := testPost("Hello World", "u1", time.Now())
	require.NoError(t, posts.Create(ctx, post))

	got, err := posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got.Title)
	assert.Equal(t, "some content", got.Content)
	assert.Equal(t, "images/x.png", got.ImageURL)
	assert.Equal(t, "u1", got.CreatorID)

	got.Title = "Hello Again"
	got.ImageURL = "images/y.png"
	require.NoError(t, posts.Update(ctx, got))

	updated, err := posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello Again", updated.Title)
	assert.Equal(t, "images/y.png", updated.ImageURL)

	require.NoError(t, posts.Delete(ctx, post.ID))
	_, err = posts.Get(ctx, post.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostRepository_UpdateDeleteMissing(t *testing.T) {
	_, posts := newTestRepos(t)
	ctx := context.Background()

	assert.ErrorIs(t, posts.Update(ctx, testPost("Nope!", "u1", time.Now())), repository.ErrNotFound)
	assert.ErrorIs(t, posts.Delete(ctx, "missing"), repository.ErrNotFound)
}

func TestPostRepository_ListNewestFirstAndCount(t *testing.T) {
	_, posts := newTestRepos(t)
	ctx := context.Background()

	// create with strictly increasing timestamps
	for i, title := range []string{"first post", "second post", "third post", "fourth post", "fifth post"} {
		post := testPost(title, "u1", time.Time{})
		require.NoError(t, posts.Create(ctx, post))
		// Create overwrites CreatedAt with now; space the rows apart
		_, err := openHandle(posts).ExecContext(ctx,
			`UPDATE posts SET created_at = ? WHERE id = ?`,
			time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC), post.ID)
		require.NoError(t, err)
	}

	total, err := posts.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	page1, err := posts.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "fifth post", page1[0].Title)
	assert.Equal(t, "fourth post", page1[1].Title)

	page2, err := posts.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "third post", page2[0].Title)
	assert.Equal(t, "second post", page2[1].Title)

	page3, err := posts.List(ctx, 4, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "first post", page3[0].Title)

	empty, err := posts.List(ctx, 6, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func openHandle(posts repository.PostRepository) *sql.DB {
	return posts.(*PostRepository).db
}
