package service

import (
	"context"
	"time"

	"go-gin-gorm-blog/internal/core/apperr"
	"go-gin-gorm-blog/internal/domain"
	"go-gin-gorm-blog/internal/repo"
	"go-gin-gorm-blog/pkg/utils"
)

type CommentService struct {
	blogs    *repo.BlogRepo
	comments *repo.CommentRepo
	now      func() time.Time
}

func NewCommentService(blogs *repo.BlogRepo, comments *repo.CommentRepo) *CommentService {
	return &CommentService{blogs: blogs, comments: comments, now: time.Now}
}

type CommentInput struct {
	Comment string `json:"comment" validate:"required"`
}

func (s *CommentService) blogExists(ctx context.Context, blogID string) error {
	b, err := s.blogs.Get(ctx, blogID)
	if err != nil {
		return apperr.FromStore("get blog", err)
	}
	if b == nil {
		return apperr.NotFound("Blog not found")
	}
	return nil
}

// Create 任何登录用户可评论任何未删除博客（含未发布）
func (s *CommentService) Create(ctx context.Context, caller domain.Caller, blogID string, in CommentInput) (CommentView, error) {
	if err := requireAuth(caller); err != nil {
		return CommentView{}, err
	}
	if err := s.blogExists(ctx, blogID); err != nil {
		return CommentView{}, err
	}
	if err := check(in); err != nil {
		return CommentView{}, err
	}
	c := &domain.Comment{ID: utils.NewID(), BlogID: blogID, AuthorID: caller.UserID, Content: in.Comment}
	if err := s.comments.Create(ctx, c); err != nil {
		return CommentView{}, apperr.FromStore("create comment", err)
	}
	created, err := s.find(ctx, c.ID)
	if err != nil {
		return CommentView{}, err
	}
	return NewCommentView(created), nil
}

func (s *CommentService) List(ctx context.Context, caller domain.Caller, blogID string) ([]CommentView, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if err := s.blogExists(ctx, blogID); err != nil {
		return nil, err
	}
	cs, err := s.comments.ListActive(ctx, blogID)
	if err != nil {
		return nil, apperr.FromStore("list comments", err)
	}
	return commentViews(cs), nil
}

// Get 直接按 id 查，已软删的也返回
func (s *CommentService) Get(ctx context.Context, caller domain.Caller, id string) (CommentView, error) {
	if err := requireAuth(caller); err != nil {
		return CommentView{}, err
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return CommentView{}, err
	}
	return NewCommentView(c), nil
}

func (s *CommentService) find(ctx context.Context, id string) (*domain.Comment, error) {
	c, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore("get comment", err)
	}
	if c == nil {
		return nil, apperr.NotFound("Comment not found")
	}
	return c, nil
}

func (s *CommentService) SoftDelete(ctx context.Context, caller domain.Caller, id string) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanModify(c.AuthorID) {
		return apperr.Forbidden("Not authorized")
	}
	if c.Deleted() {
		return nil // 重复删除保留第一次的时间戳
	}
	if err := s.comments.SoftDelete(ctx, id, s.now()); err != nil {
		return apperr.FromStore("delete comment", err)
	}
	return nil
}
