package service

import (
	"context"
	"errors"
	"time"

	"go-gin-gorm-blog/internal/core/apperr"
	"go-gin-gorm-blog/internal/core/storage"
	"go-gin-gorm-blog/internal/domain"
	"go-gin-gorm-blog/internal/repo"
	"go-gin-gorm-blog/pkg/utils"
)

const msgNoCategory = "Category does not exist. Only admins can create new categories."

type BlogService struct {
	blogs *repo.BlogRepo
	cats  *repo.CategoryRepo
	store storage.Store
	now   func() time.Time
}

func NewBlogService(blogs *repo.BlogRepo, cats *repo.CategoryRepo, store storage.Store) *BlogService {
	return &BlogService{blogs: blogs, cats: cats, store: store, now: time.Now}
}

type BlogInput struct {
	Title        string          `json:"title"         form:"title"         validate:"required,max=100"`
	Content      string          `json:"content"       form:"content"       validate:"required"`
	CategoryName string          `json:"category_name" form:"category_name" validate:"required"`
	IsPublished  bool            `json:"is_published"  form:"is_published"`
	PublishAt    *time.Time      `json:"publish_at"    form:"publish_at" time_format:"2006-01-02T15:04:05Z07:00"`
	Image        *storage.Upload `json:"-" form:"-"`
}

// BlogPatch 部分更新；nil 表示不修改
type BlogPatch struct {
	Title          *string         `json:"title"            form:"title"         validate:"omitnil,min=1,max=100"`
	Content        *string         `json:"content"          form:"content"       validate:"omitnil,min=1"`
	CategoryName   *string         `json:"category_name"    form:"category_name" validate:"omitnil,min=1"`
	IsPublished    *bool           `json:"is_published"     form:"is_published"`
	PublishAt      *time.Time      `json:"publish_at"       form:"publish_at" time_format:"2006-01-02T15:04:05Z07:00"`
	ClearPublishAt bool            `json:"clear_publish_at" form:"clear_publish_at"`
	Image          *storage.Upload `json:"-" form:"-"`
}

func (s *BlogService) load(ctx context.Context, id string) (*domain.Blog, error) {
	b, err := s.blogs.Get(ctx, id)
	if err != nil {
		return nil, apperr.FromStore("get blog", err)
	}
	if b == nil {
		return nil, apperr.NotFound("Blog not found")
	}
	return b, nil
}

func (s *BlogService) category(ctx context.Context, name string) (*domain.Category, error) {
	c, err := s.cats.FindByName(ctx, name)
	if err != nil {
		return nil, apperr.FromStore("find category", err)
	}
	if c == nil {
		return nil, apperr.Invalid("validation failed", map[string]string{"category_name": msgNoCategory})
	}
	return c, nil
}

func (s *BlogService) putImage(ctx context.Context, u *storage.Upload) (string, error) {
	if err := storage.ValidateImage(u); err != nil {
		if errors.Is(err, storage.ErrImageTooLarge) || errors.Is(err, storage.ErrImageType) {
			return "", apperr.Invalid("validation failed", map[string]string{"image": err.Error()})
		}
		return "", apperr.BadRequest("unreadable image upload")
	}
	key := storage.ObjectKey("blog_image", u.Filename, s.now())
	url, err := s.store.Put(ctx, key, u.Body, u.Size, u.ContentType)
	if err != nil {
		return "", apperr.Unavailable("image storage unavailable, please try again later", err)
	}
	return url, nil
}

func (s *BlogService) Create(ctx context.Context, caller domain.Caller, in BlogInput) (BlogView, error) {
	if err := requireAuth(caller); err != nil {
		return BlogView{}, err
	}
	if err := check(in); err != nil {
		return BlogView{}, err
	}
	cat, err := s.category(ctx, in.CategoryName)
	if err != nil {
		return BlogView{}, err
	}
	b := &domain.Blog{
		ID:          utils.NewID(),
		Title:       in.Title,
		Content:     in.Content,
		AuthorID:    caller.UserID,
		CategoryID:  &cat.ID,
		IsPublished: in.IsPublished,
		PublishAt:   in.PublishAt,
	}
	if in.Image != nil {
		if b.Image, err = s.putImage(ctx, in.Image); err != nil {
			return BlogView{}, err
		}
	}
	b.ApplyPublishSchedule(s.now())
	if err := s.blogs.Create(ctx, b); err != nil {
		return BlogView{}, apperr.FromStore("create blog", err)
	}
	created, err := s.load(ctx, b.ID)
	if err != nil {
		return BlogView{}, err
	}
	return NewBlogView(created), nil
}

func (s *BlogService) Update(ctx context.Context, caller domain.Caller, id string, p BlogPatch) (BlogView, error) {
	if err := requireAuth(caller); err != nil {
		return BlogView{}, err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return BlogView{}, err
	}
	if !caller.CanModify(b.AuthorID) {
		return BlogView{}, apperr.Forbidden("You are not authorized to edit or delete this blog.")
	}
	if err := check(p); err != nil {
		return BlogView{}, err
	}

	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Content != nil {
		b.Content = *p.Content
	}
	if p.CategoryName != nil {
		cat, err := s.category(ctx, *p.CategoryName)
		if err != nil {
			return BlogView{}, err
		}
		b.CategoryID, b.Category = &cat.ID, cat
	}
	if p.IsPublished != nil {
		b.IsPublished = *p.IsPublished
	}
	if p.PublishAt != nil {
		b.PublishAt = p.PublishAt
	}
	if p.ClearPublishAt {
		b.PublishAt = nil
	}
	if p.Image != nil {
		if b.Image, err = s.putImage(ctx, p.Image); err != nil {
			return BlogView{}, err
		}
	}
	b.ApplyPublishSchedule(s.now())
	if err := s.blogs.Update(ctx, b); err != nil {
		return BlogView{}, apperr.FromStore("update blog", err)
	}
	updated, err := s.load(ctx, id)
	if err != nil {
		return BlogView{}, err
	}
	return NewBlogView(updated), nil
}

// Delete 软删，作者或管理员
func (s *BlogService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanModify(b.AuthorID) {
		return apperr.Forbidden("You are not authorized to edit or delete this blog.")
	}
	if _, err := s.blogs.SoftDelete(ctx, id); err != nil {
		return apperr.FromStore("delete blog", err)
	}
	return nil
}

// Purge 物理删除（含已软删），仅管理员
func (s *BlogService) Purge(ctx context.Context, caller domain.Caller, id string) error {
	if !caller.IsAdmin {
		return apperr.Forbidden("Only admins can purge blogs.")
	}
	n, err := s.blogs.Purge(ctx, id)
	if err != nil {
		return apperr.FromStore("purge blog", err)
	}
	if n == 0 {
		return apperr.NotFound("Blog not found")
	}
	return nil
}

// View returns a readable blog and counts the view.
func (s *BlogService) View(ctx context.Context, caller domain.Caller, id string) (BlogView, error) {
	if err := requireAuth(caller); err != nil {
		return BlogView{}, err
	}
	b, err := s.load(ctx, id)
	if err != nil {
		return BlogView{}, err
	}
	if !b.VisibleTo(caller) {
		return BlogView{}, apperr.Forbidden("You are not authorized to view this unpublished blog.")
	}
	return s.countView(ctx, caller, b)
}

func (s *BlogService) ViewByTitle(ctx context.Context, caller domain.Caller, title string) (BlogView, error) {
	if err := requireAuth(caller); err != nil {
		return BlogView{}, err
	}
	b, err := s.blogs.GetPublishedByTitle(ctx, title)
	if err != nil {
		return BlogView{}, apperr.FromStore("get blog", err)
	}
	if b == nil {
		return BlogView{}, apperr.NotFound("Blog not found or not published")
	}
	return s.countView(ctx, caller, b)
}

func (s *BlogService) countView(ctx context.Context, caller domain.Caller, b *domain.Blog) (BlogView, error) {
	if err := s.blogs.IncrementViews(ctx, b.ID); err != nil {
		return BlogView{}, apperr.FromStore("count view", err)
	}
	b.Views++
	v := NewBlogView(b)
	liked, err := s.blogs.HasLiked(ctx, b.ID, caller.UserID)
	if err != nil {
		return BlogView{}, apperr.FromStore("get like", err)
	}
	v.LikedByMe = liked
	return v, nil
}

type LikeResult struct {
	Liked      bool  `json:"liked"`
	TotalLikes int64 `json:"total_likes"`
}

func (s *BlogService) ToggleLike(ctx context.Context, caller domain.Caller, id string) (LikeResult, error) {
	if err := requireAuth(caller); err != nil {
		return LikeResult{}, err
	}
	b, err := s.blogs.Get(ctx, id)
	if err != nil {
		return LikeResult{}, apperr.FromStore("get blog", err)
	}
	if b == nil || !b.IsPublished {
		return LikeResult{}, apperr.NotFound("Blog not found or not published")
	}
	if b.AuthorID == caller.UserID {
		return LikeResult{}, apperr.BadRequest("You cannot like your own blog.")
	}
	liked, total, err := s.blogs.ToggleLike(ctx, id, caller.UserID)
	if err != nil {
		return LikeResult{}, apperr.FromStore("toggle like", err)
	}
	return LikeResult{Liked: liked, TotalLikes: total}, nil
}

type BlogQuery struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	Size     int    `form:"size"`
}

// ListPublished 公开列表：只含已发布、未删除；登录用户额外带 liked_by_me
func (s *BlogService) ListPublished(ctx context.Context, caller domain.Caller, q BlogQuery) (Page[BlogView], error) {
	page, size := normPage(q.Page, q.Size)
	bs, total, err := s.blogs.List(ctx, repo.BlogFilter{
		CategoryID: q.Category,
		Search:     q.Search,
		Published:  true,
		Offset:     (page - 1) * size,
		Limit:      size,
	})
	if err != nil {
		return Page[BlogView]{}, apperr.FromStore("list blogs", err)
	}
	views := blogViews(bs)
	if caller.Authenticated() && len(views) > 0 {
		ids := make([]string, len(views))
		for i := range views {
			ids[i] = views[i].ID
		}
		liked, err := s.blogs.LikedAmong(ctx, caller.UserID, ids)
		if err != nil {
			return Page[BlogView]{}, apperr.FromStore("list likes", err)
		}
		for i := range views {
			views[i].LikedByMe = liked[views[i].ID]
		}
	}
	return Page[BlogView]{List: views, Total: total, Page: page, Size: size}, nil
}

func (s *BlogService) ListMine(ctx context.Context, caller domain.Caller, page, size int) (Page[BlogView], error) {
	if err := requireAuth(caller); err != nil {
		return Page[BlogView]{}, err
	}
	page, size = normPage(page, size)
	bs, total, err := s.blogs.List(ctx, repo.BlogFilter{
		AuthorID: caller.UserID,
		Offset:   (page - 1) * size,
		Limit:    size,
	})
	if err != nil {
		return Page[BlogView]{}, apperr.FromStore("list blogs", err)
	}
	return Page[BlogView]{List: blogViews(bs), Total: total, Page: page, Size: size}, nil
}
