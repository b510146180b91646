package service

import (
	"context"
	"io"
	"sync"

	"social-feed/internal/domain"
	"social-feed/internal/repository"
)

// --- in-memory fakes shared by the service tests ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // by id
	refs  map[string][]string    // owned post ids by user id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: map[string]*domain.User{},
		refs:  map[string][]string{},
	}
}

func (f *fakeUserRepo) Init(ctx context.Context) error { return nil }

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) UpdateStatus(ctx context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	return nil
}

func (f *fakeUserRepo) AppendPost(ctx context.Context, userID, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs[userID] = append(f.refs[userID], postID)
	return nil
}

func (f *fakeUserRepo) RemovePost(ctx context.Context, userID, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	refs := f.refs[userID]
	for i, ref := range refs {
		if ref == postID {
			f.refs[userID] = append(refs[:i], refs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeUserRepo) ListPostIDs(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.refs[userID]...), nil
}

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*domain.Post
	order []string // creation order, oldest first
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[string]*domain.Post{}}
}

func (f *fakePostRepo) Init(ctx context.Context) error { return nil }

func (f *fakePostRepo) Create(ctx context.Context, post *domain.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *post
	f.posts[post.ID] = &clone
	f.order = append(f.order, post.ID)
	return nil
}

func (f *fakePostRepo) Get(ctx context.Context, id string) (*domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *post
	return &clone, nil
}

func (f *fakePostRepo) List(ctx context.Context, offset, limit int) ([]domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	newest := append([]string(nil), f.order...)
	for i, j := 0, len(newest)-1; i < j; i, j = i+1, j-1 {
		newest[i], newest[j] = newest[j], newest[i]
	}
	var out []domain.Post
	for i := offset; i < len(newest) && len(out) < limit; i++ {
		out = append(out, *f.posts[newest[i]])
	}
	return out, nil
}

func (f *fakePostRepo) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts), nil
}

func (f *fakePostRepo) Update(ctx context.Context, post *domain.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[post.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *post
	f.posts[post.ID] = &clone
	return nil
}

func (f *fakePostRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.posts, id)
	for i, ref := range f.order {
		if ref == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

// fakeStorage records removals so tests can await fire-and-forget cleanup.
type fakeStorage struct {
	removed chan string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{removed: make(chan string, 8)}
}

func (f *fakeStorage) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	return "images/" + filename, nil
}

func (f *fakeStorage) Remove(ctx context.Context, ref string) error {
	f.removed <- ref
	return nil
}
