package service

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-gorm-blog/internal/core/auth"
	"go-gin-gorm-blog/internal/dbtest"
	"go-gin-gorm-blog/internal/domain"
	"go-gin-gorm-blog/internal/repo"
)

const testPassword = "Str0ng-pass!"

var ctx = context.Background()

type sentMail struct{ To, Subject, Body string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
	return "/media/" + key, nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

type env struct {
	users    *repo.UserRepo
	blogsR   *repo.BlogRepo
	auth     *AuthService
	blogs    *BlogService
	comments *CommentService
	cats     *CategoryService
	profile  *ProfileService
	stats    *StatsService
	admin    *UserAdminService
	mail     *fakeMailer
	store    *memStore
	jwt      *auth.JWTer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t, repo.Models()...)
	users := repo.NewUserRepo(db)
	blogs := repo.NewBlogRepo(db)
	cats := repo.NewCategoryRepo(db)
	comments := repo.NewCommentRepo(db)

	e := &env{
		users:  users,
		blogsR: blogs,
		mail:   &fakeMailer{},
		store:  &memStore{objects: map[string][]byte{}},
		jwt: &auth.JWTer{Secret: []byte("test-secret"), Issuer: "blog-test",
			TTL: 5 * time.Minute, RefreshTTL: 24 * time.Hour},
	}
	e.auth = NewAuthService(AuthDeps{
		Users:     users,
		JWT:       e.jwt,
		Revoker:   auth.NewGormRevoker(db),
		Reset:     &auth.ResetTokens{Secret: []byte("test-secret"), Issuer: "blog-test", TTL: time.Hour},
		Mail:      e.mail,
		ResetLink: "http://localhost:3000/reset-password/",
		Log:       zap.NewNop(),
	})
	e.blogs = NewBlogService(blogs, cats, e.store)
	e.comments = NewCommentService(blogs, comments)
	e.cats = NewCategoryService(cats, nil, 0)
	e.profile = NewProfileService(users, e.store)
	e.stats = NewStatsService(repo.NewStatsRepo(db))
	e.admin = NewUserAdminService(users)
	return e
}

// register creates a user and returns its caller identity.
func (e *env) register(t *testing.T, username string, admin bool) domain.Caller {
	t.Helper()
	u, err := e.auth.Register(ctx, RegisterInput{
		Username: username, Email: username + "@example.com",
		Password: testPassword, Password2: testPassword,
	})
	require.NoError(t, err)
	if admin {
		require.NoError(t, e.admin.Promote(ctx, username))
	}
	return domain.Caller{UserID: u.ID, Username: u.Username, Email: u.Email, IsAdmin: admin}
}

func (e *env) category(t *testing.T, admin domain.Caller, name string) domain.Category {
	t.Helper()
	c, err := e.cats.Create(ctx, admin, CategoryInput{Name: name})
	require.NoError(t, err)
	return c
}

func (e *env) blog(t *testing.T, author domain.Caller, title, category string, published bool) BlogView {
	t.Helper()
	b, err := e.blogs.Create(ctx, author, BlogInput{
		Title: title, Content: "body of " + title, CategoryName: category, IsPublished: published,
	})
	require.NoError(t, err)
	return b
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func pngReader() io.Reader { return bytes.NewReader(pngBytes) }
