package app

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"go-gin-gorm-blog/internal/core/config"
	"go-gin-gorm-blog/internal/dbtest"
	"go-gin-gorm-blog/internal/domain"
	"go-gin-gorm-blog/pkg/utils"
)

const pw = "Str0ng-pass!"

type mailBox struct {
	mu   sync.Mutex
	body []string
}

func (m *mailBox) Send(_ context.Context, _, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.body = append(m.body, body)
	return nil
}

func (m *mailBox) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.body...)
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type HTTPSuite struct {
	suite.Suite
	app   *App
	api   *gin.Engine
	admin *gin.Engine
	mail  *mailBox
}

func TestHTTPSuite(t *testing.T) { suite.Run(t, new(HTTPSuite)) }

func (s *HTTPSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	cfg, err := config.Read("")
	s.Require().NoError(err)
	cfg.JWT.Secret = "http-test-secret"
	cfg.Storage.LocalDir = s.T().TempDir()
	cfg.Redis.Addr = ""

	s.mail = &mailBox{}
	a, err := Build(context.Background(), cfg, zap.NewNop(), Options{DB: dbtest.Open(s.T()), Mail: s.mail})
	s.Require().NoError(err)
	s.app = a
	s.api = a.APIEngine()
	s.admin = a.AdminEngine()
}

func (s *HTTPSuite) TearDownTest() { s.app.Close() }

func (s *HTTPSuite) call(h http.Handler, method, path, token string, body any) (int, envelope) {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(h, req, token)
}

func (s *HTTPSuite) send(h http.Handler, req *http.Request, token string) (int, envelope) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (s *HTTPSuite) decode(env envelope, v any) {
	s.Require().NoError(json.Unmarshal(env.Data, v), string(env.Data))
}

func (s *HTTPSuite) register(name string) {
	code, env := s.call(s.api, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": name, "email": name + "@example.com", "password": pw, "password2": pw,
	})
	s.Require().Equal(http.StatusOK, code, env.Msg)
}

type tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (s *HTTPSuite) login(identifier, password string) (int, tokens) {
	code, env := s.call(s.api, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"identifier": identifier, "password": password,
	})
	var t tokens
	if code == http.StatusOK {
		s.decode(env, &t)
	}
	return code, t
}

func (s *HTTPSuite) user(name string) tokens {
	s.register(name)
	code, t := s.login(name, pw)
	s.Require().Equal(http.StatusOK, code)
	return t
}

func (s *HTTPSuite) adminUser(name string) tokens {
	s.register(name)
	s.Require().NoError(s.app.Users.Promote(context.Background(), name))
	code, t := s.login(name, pw)
	s.Require().Equal(http.StatusOK, code)
	return t
}

func (s *HTTPSuite) seedCategory(name string) {
	s.Require().NoError(s.app.DB.Create(&domain.Category{ID: utils.NewID(), Name: name}).Error)
}

type blogOut struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Image       string `json:"image"`
	IsPublished bool   `json:"is_published"`
	Views       uint   `json:"views"`
	LikesCount  int64  `json:"likes_count"`
	LikedByMe   bool   `json:"liked_by_me"`
	Author      struct {
		Username string `json:"username"`
	} `json:"author"`
	Category *struct {
		Name string `json:"name"`
	} `json:"category"`
}

func (s *HTTPSuite) TestHealth() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.api.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *HTTPSuite) TestRegisterLoginMe() {
	s.register("alice")

	// 重复邮箱
	code, env := s.call(s.api, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice2", "email": "alice@example.com", "password": pw, "password2": pw,
	})
	s.Equal(http.StatusBadRequest, code)
	s.Equal(400, env.Code)
	s.Contains(string(env.Data), "email")

	code, _ = s.login("alice@example.com", "wrong-password")
	s.Equal(http.StatusUnauthorized, code)

	code, t := s.login("alice@example.com", pw)
	s.Require().Equal(http.StatusOK, code)
	s.NotEmpty(t.Refresh)

	code, env = s.call(s.api, http.MethodGet, "/api/v1/auth/me", t.Access, nil)
	s.Require().Equal(http.StatusOK, code)
	var me struct {
		Username string `json:"username"`
		IsAdmin  bool   `json:"is_admin"`
	}
	s.decode(env, &me)
	s.Equal("alice", me.Username)
	s.False(me.IsAdmin)

	code, _ = s.call(s.api, http.MethodGet, "/api/v1/auth/me", "", nil)
	s.Equal(http.StatusUnauthorized, code)
}

func (s *HTTPSuite) TestRefreshAndLogout() {
	t := s.user("carol")

	code, env := s.call(s.api, http.MethodPost, "/api/v1/auth/token/refresh", "", map[string]string{"refresh": t.Refresh})
	s.Require().Equal(http.StatusOK, code)
	var acc struct {
		Access string `json:"access"`
	}
	s.decode(env, &acc)
	s.NotEmpty(acc.Access)

	code, _ = s.call(s.api, http.MethodPost, "/api/v1/auth/logout", t.Access, map[string]string{})
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.call(s.api, http.MethodPost, "/api/v1/auth/logout", t.Access, map[string]string{"refresh": t.Refresh})
	s.Require().Equal(http.StatusOK, code)

	code, env = s.call(s.api, http.MethodPost, "/api/v1/auth/token/refresh", "", map[string]string{"refresh": t.Refresh})
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("Token is blacklisted", env.Msg)
}

func (s *HTTPSuite) TestPasswordReset() {
	s.register("dave")

	code, env := s.call(s.api, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{"email": "nobody@example.com"})
	s.Require().Equal(http.StatusOK, code)

	code, _ = s.call(s.api, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{"email": "dave@example.com"})
	s.Require().Equal(http.StatusOK, code)
	// 邮件异步投递
	s.Require().Eventually(func() bool { return len(s.mail.sent()) > 0 }, 2*time.Second, 10*time.Millisecond)
	s.Require().Len(s.mail.sent(), 1, "unknown emails get no mail")

	body := s.mail.sent()[0]
	link := body[strings.Index(body, "http"):]
	parts := strings.Split(link, "/")
	uid, tok := parts[len(parts)-2], parts[len(parts)-1]

	newPw := "An0ther-secret!"
	path := "/api/v1/auth/reset-password-confirm/" + uid + "/" + tok
	code, env = s.call(s.api, http.MethodPost, path, "", map[string]string{"new_password": newPw})
	s.Require().Equal(http.StatusOK, code, env.Msg)

	// 令牌只能用一次
	code, env = s.call(s.api, http.MethodPost, path, "", map[string]string{"new_password": "Th1rd-secret!"})
	s.Equal(http.StatusBadRequest, code)
	s.Equal("Invalid or expired token.", env.Msg)

	code, _ = s.login("dave", pw)
	s.Equal(http.StatusUnauthorized, code)
	code, _ = s.login("dave", newPw)
	s.Equal(http.StatusOK, code)
}

func (s *HTTPSuite) TestCategoryPermissions() {
	root := s.adminUser("root")
	alice := s.user("alice")

	code, _ := s.call(s.api, http.MethodPost, "/api/v1/categories", alice.Access, map[string]string{"name": "Go"})
	s.Equal(http.StatusForbidden, code)

	code, env := s.call(s.api, http.MethodPost, "/api/v1/categories", root.Access, map[string]string{"name": "Go"})
	s.Require().Equal(http.StatusOK, code, env.Msg)

	code, env = s.call(s.api, http.MethodPost, "/api/v1/categories", root.Access, map[string]string{"name": "Go"})
	s.Equal(http.StatusBadRequest, code)
	s.Contains(string(env.Data), "name")

	code, env = s.call(s.api, http.MethodGet, "/api/v1/categories", "", nil)
	s.Require().Equal(http.StatusOK, code)
	var cats []struct {
		Name string `json:"name"`
	}
	s.decode(env, &cats)
	s.Require().Len(cats, 1)
	s.Equal("Go", cats[0].Name)

	code, _ = s.call(s.api, http.MethodDelete, "/api/v1/categories/missing", root.Access, nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *HTTPSuite) TestBlogLifecycle() {
	alice := s.user("alice")
	bob := s.user("bob")
	s.seedCategory("Go")

	code, env := s.call(s.api, http.MethodPost, "/api/v1/blogs", alice.Access, map[string]any{
		"title": "Hello", "content": "first post", "category_name": "Go", "is_published": true,
	})
	s.Require().Equal(http.StatusOK, code, env.Msg)
	var b blogOut
	s.decode(env, &b)
	s.True(b.IsPublished)
	s.Require().NotNil(b.Category)
	s.Equal("Go", b.Category.Name)

	code, env = s.call(s.api, http.MethodPost, "/api/v1/blogs", "", map[string]any{"title": "x", "content": "y", "category_name": "Go"})
	s.Equal(http.StatusUnauthorized, code)

	code, env = s.call(s.api, http.MethodGet, "/api/v1/blogs?search=hel", "", nil)
	s.Require().Equal(http.StatusOK, code)
	var page struct {
		Total int64     `json:"total"`
		List  []blogOut `json:"list"`
	}
	s.decode(env, &page)
	s.Equal(int64(1), page.Total)

	code, env = s.call(s.api, http.MethodGet, "/api/v1/blogs/"+b.ID, bob.Access, nil)
	s.Require().Equal(http.StatusOK, code)
	s.decode(env, &b)
	s.Equal(uint(1), b.Views)

	// 点赞两次回到原状态；作者不能点赞
	var like struct {
		Liked      bool  `json:"liked"`
		TotalLikes int64 `json:"total_likes"`
	}
	code, env = s.call(s.api, http.MethodPost, "/api/v1/blogs/"+b.ID+"/like-toggle", bob.Access, nil)
	s.Require().Equal(http.StatusOK, code)
	s.decode(env, &like)
	s.True(like.Liked)
	s.Equal(int64(1), like.TotalLikes)

	// 公共列表：带 token 时标出自己点过赞的
	for token, want := range map[string]bool{bob.Access: true, "": false, alice.Access: false} {
		code, env = s.call(s.api, http.MethodGet, "/api/v1/blogs", token, nil)
		s.Require().Equal(http.StatusOK, code)
		var liked struct {
			List []blogOut `json:"list"`
		}
		s.decode(env, &liked)
		s.Require().Len(liked.List, 1)
		s.Equal(want, liked.List[0].LikedByMe)
	}
	code, _ = s.call(s.api, http.MethodGet, "/api/v1/blogs", "garbage", nil)
	s.Equal(http.StatusOK, code, "an invalid token on a public route is treated as anonymous")
	code, env = s.call(s.api, http.MethodPost, "/api/v1/blogs/"+b.ID+"/like-toggle", bob.Access, nil)
	s.Require().Equal(http.StatusOK, code)
	s.decode(env, &like)
	s.False(like.Liked)
	code, _ = s.call(s.api, http.MethodPost, "/api/v1/blogs/"+b.ID+"/like-toggle", alice.Access, nil)
	s.Equal(http.StatusBadRequest, code)

	// 只有作者能改
	code, _ = s.call(s.api, http.MethodPut, "/api/v1/blogs/"+b.ID, bob.Access, map[string]any{"title": "Hijack"})
	s.Equal(http.StatusForbidden, code)
	code, env = s.call(s.api, http.MethodPut, "/api/v1/blogs/"+b.ID, alice.Access, map[string]any{"title": "Hello again"})
	s.Require().Equal(http.StatusOK, code, env.Msg)
	s.decode(env, &b)
	s.Equal("Hello again", b.Title)

	code, env = s.call(s.api, http.MethodGet, "/api/v1/blogs/title/Hello%20again", bob.Access, nil)
	s.Require().Equal(http.StatusOK, code, env.Msg)

	code, env = s.call(s.api, http.MethodGet, "/api/v1/blogs/mine", alice.Access, nil)
	s.Require().Equal(http.StatusOK, code)
	s.decode(env, &page)
	s.Equal(int64(1), page.Total)

	code, _ = s.call(s.api, http.MethodDelete, "/api/v1/blogs/"+b.ID, alice.Access, nil)
	s.Require().Equal(http.StatusOK, code)
	code, _ = s.call(s.api, http.MethodGet, "/api/v1/blogs/"+b.ID, bob.Access, nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *HTTPSuite) TestDraftHiddenFromOthers() {
	alice := s.user("alice")
	bob := s.user("bob")
	s.seedCategory("Misc")

	code, env := s.call(s.api, http.MethodPost, "/api/v1/blogs", alice.Access, map[string]any{
		"title": "Draft", "content": "wip", "category_name": "Misc",
	})
	s.Require().Equal(http.StatusOK, code, env.Msg)
	var b blogOut
	s.decode(env, &b)
	s.False(b.IsPublished)

	code, _ = s.call(s.api, http.MethodGet, "/api/v1/blogs/"+b.ID, bob.Access, nil)
	s.Equal(http.StatusForbidden, code)

	code, env = s.call(s.api, http.MethodGet, "/api/v1/blogs/"+b.ID, alice.Access, nil)
	s.Require().Equal(http.StatusOK, code)
	s.decode(env, &b)
	s.Equal(uint(1), b.Views, "the forbidden read did not count")
}

func (s *HTTPSuite) TestComments() {
	alice := s.user("alice")
	bob := s.user("bob")
	s.seedCategory("Chat")

	code, env := s.call(s.api, http.MethodPost, "/api/v1/blogs", alice.Access, map[string]any{
		"title": "Talk", "content": "say something", "category_name": "Chat", "is_published": true,
	})
	s.Require().Equal(http.StatusOK, code, env.Msg)
	var b blogOut
	s.decode(env, &b)

	code, env = s.call(s.api, http.MethodPost, "/api/v1/blogs/"+b.ID+"/comments", bob.Access, map[string]string{"comment": "nice"})
	s.Require().Equal(http.StatusOK, code, env.Msg)
	var cm struct {
		ID     string `json:"id"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
	}
	s.decode(env, &cm)
	s.Equal("bob", cm.Author.Username)

	code, _ = s.call(s.api, http.MethodPost, "/api/v1/blogs/"+b.ID+"/comments", bob.Access, map[string]string{"comment": ""})
	s.Equal(http.StatusBadRequest, code)

	code, _ = s.call(s.api, http.MethodDelete, "/api/v1/comments/"+cm.ID, alice.Access, nil)
	s.Equal(http.StatusForbidden, code)
	code, _ = s.call(s.api, http.MethodDelete, "/api/v1/comments/"+cm.ID, bob.Access, nil)
	s.Require().Equal(http.StatusOK, code)

	code, env = s.call(s.api, http.MethodGet, "/api/v1/blogs/"+b.ID+"/comments", alice.Access, nil)
	s.Require().Equal(http.StatusOK, code)
	var list []json.RawMessage
	s.decode(env, &list)
	s.Empty(list)

	// 软删的评论仍可单独查到
	code, env = s.call(s.api, http.MethodGet, "/api/v1/comments/"+cm.ID, alice.Access, nil)
	s.Require().Equal(http.StatusOK, code)
	s.Contains(string(env.Data), `"deleted_at":"`)
}

func pngBody() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func (s *HTTPSuite) multipart(method, path, token, field, filename string, data []byte, fields map[string]string) (int, envelope) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile(field, filename)
	s.Require().NoError(err)
	_, err = fw.Write(data)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.send(s.api, req, token)
}

func (s *HTTPSuite) TestUploads() {
	alice := s.user("alice")
	s.seedCategory("Photos")

	code, env := s.multipart(http.MethodPost, "/api/v1/blogs", alice.Access, "image", "cover.png", pngBody(), map[string]string{
		"title": "Pics", "content": "see image", "category_name": "Photos", "is_published": "true",
	})
	s.Require().Equal(http.StatusOK, code, env.Msg)
	var b blogOut
	s.decode(env, &b)
	s.True(strings.HasPrefix(b.Image, "/media/blog_image/"), b.Image)

	// 本地存储由 API engine 直接提供
	w := httptest.NewRecorder()
	s.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, b.Image, nil))
	s.Equal(http.StatusOK, w.Code)

	code, env = s.multipart(http.MethodPut, "/api/v1/auth/me/profile-picture", alice.Access, "profile_picture", "me.png", pngBody(), nil)
	s.Require().Equal(http.StatusOK, code, env.Msg)
	s.Contains(string(env.Data), "/media/profile_pics/")

	code, env = s.multipart(http.MethodPut, "/api/v1/auth/me/profile-picture", alice.Access, "profile_picture", "me.gif", []byte("GIF89a"), nil)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(string(env.Data), "profile_picture")
}

func (s *HTTPSuite) TestAdminEngine() {
	root := s.adminUser("root")
	alice := s.user("alice")
	bob := s.user("bob")
	s.seedCategory("Meta")

	code, env := s.call(s.api, http.MethodPost, "/api/v1/blogs", alice.Access, map[string]any{
		"title": "Stats", "content": "count me", "category_name": "Meta", "is_published": true,
	})
	s.Require().Equal(http.StatusOK, code, env.Msg)
	var b blogOut
	s.decode(env, &b)

	code, _ = s.call(s.admin, http.MethodGet, "/admin/v1/stats", alice.Access, nil)
	s.Equal(http.StatusForbidden, code)
	code, _ = s.call(s.api, http.MethodGet, "/api/v1/stats", alice.Access, nil)
	s.Equal(http.StatusForbidden, code)

	code, env = s.call(s.admin, http.MethodGet, "/admin/v1/stats", root.Access, nil)
	s.Require().Equal(http.StatusOK, code, env.Msg)
	var st struct {
		TotalBlogs int64 `json:"total_blogs"`
		Users      []any `json:"users"`
	}
	s.decode(env, &st)
	s.Equal(int64(1), st.TotalBlogs)
	s.Len(st.Users, 3)

	code, env = s.call(s.admin, http.MethodGet, "/admin/v1/users?q=bo", root.Access, nil)
	s.Require().Equal(http.StatusOK, code)
	var ul struct {
		Total int64 `json:"total"`
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	s.decode(env, &ul)
	s.Require().Equal(int64(1), ul.Total)

	code, _ = s.call(s.admin, http.MethodPost, "/admin/v1/users/"+ul.Items[0].ID+"/ban", root.Access, nil)
	s.Require().Equal(http.StatusOK, code)

	// 被封禁的用户 token 立即失效
	code, env = s.call(s.api, http.MethodGet, "/api/v1/auth/me", bob.Access, nil)
	s.Equal(http.StatusUnauthorized, code)
	s.Equal("User not found", env.Msg)

	code, _ = s.call(s.admin, http.MethodDelete, "/admin/v1/blogs/"+b.ID, root.Access, nil)
	s.Require().Equal(http.StatusOK, code)
	code, _ = s.call(s.admin, http.MethodDelete, "/admin/v1/blogs/"+b.ID, root.Access, nil)
	s.Equal(http.StatusNotFound, code)

	w := httptest.NewRecorder()
	s.admin.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "http_requests_total")
}
