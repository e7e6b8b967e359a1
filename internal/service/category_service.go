package service

import (
	"context"
	"strings"
	"time"

	"go-gin-gorm-blog/internal/core/apperr"
	"go-gin-gorm-blog/internal/core/cache"
	"go-gin-gorm-blog/internal/domain"
	"go-gin-gorm-blog/internal/repo"
	"go-gin-gorm-blog/pkg/utils"
)

const categoriesKey = "categories:all"

type CategoryService struct {
	cats  *repo.CategoryRepo
	cache *cache.Cache // 可为 nil
	ttl   time.Duration
}

func NewCategoryService(cats *repo.CategoryRepo, c *cache.Cache, ttl time.Duration) *CategoryService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CategoryService{cats: cats, cache: c, ttl: ttl}
}

type CategoryInput struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description"`
}

type CategoryPatch struct {
	Name        *string `json:"name"        validate:"omitnil,min=1,max=100"`
	Description *string `json:"description"`
}

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	cs, err := cache.GetOrLoadJSON(s.cache, ctx, categoriesKey, s.ttl, s.cats.List)
	if err != nil {
		return nil, apperr.FromStore("list categories", err)
	}
	if cs == nil {
		cs = []domain.Category{}
	}
	return cs, nil
}

func requireAdmin(caller domain.Caller, msg string) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if !caller.IsAdmin {
		return apperr.Forbidden(msg)
	}
	return nil
}

func dupName() error {
	return apperr.Invalid("validation failed", map[string]string{"name": "category with this name already exists."})
}

func (s *CategoryService) Create(ctx context.Context, caller domain.Caller, in CategoryInput) (domain.Category, error) {
	if err := requireAdmin(caller, "Only admin can create categories"); err != nil {
		return domain.Category{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := check(in); err != nil {
		return domain.Category{}, err
	}
	existing, err := s.cats.FindByName(ctx, in.Name)
	if err != nil {
		return domain.Category{}, apperr.FromStore("find category", err)
	}
	if existing != nil {
		return domain.Category{}, dupName()
	}
	c := domain.Category{ID: utils.NewID(), Name: in.Name, Description: in.Description}
	if err := s.cats.Create(ctx, &c); err != nil {
		if apperr.IsDupKey(err) {
			return domain.Category{}, dupName()
		}
		return domain.Category{}, apperr.FromStore("create category", err)
	}
	s.cache.Invalidate(ctx, categoriesKey)
	return c, nil
}

func (s *CategoryService) find(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.cats.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore("find category", err)
	}
	if c == nil {
		return nil, apperr.NotFound("Category not found")
	}
	return c, nil
}

// Update 先查存在性再校验权限
func (s *CategoryService) Update(ctx context.Context, caller domain.Caller, id string, p CategoryPatch) (domain.Category, error) {
	if err := requireAuth(caller); err != nil {
		return domain.Category{}, err
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	if err := requireAdmin(caller, "Only admin can modify categories"); err != nil {
		return domain.Category{}, err
	}
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		p.Name = &trimmed
	}
	if err := check(p); err != nil {
		return domain.Category{}, err
	}
	if p.Name != nil && *p.Name != c.Name {
		other, err := s.cats.FindByName(ctx, *p.Name)
		if err != nil {
			return domain.Category{}, apperr.FromStore("find category", err)
		}
		if other != nil {
			return domain.Category{}, dupName()
		}
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if err := s.cats.Update(ctx, c); err != nil {
		if apperr.IsDupKey(err) {
			return domain.Category{}, dupName()
		}
		return domain.Category{}, apperr.FromStore("update category", err)
	}
	s.cache.Invalidate(ctx, categoriesKey)
	return *c, nil
}

func (s *CategoryService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := requireAdmin(caller, "Only admin can modify categories"); err != nil {
		return err
	}
	if _, err := s.cats.Delete(ctx, id); err != nil {
		return apperr.FromStore("delete category", err)
	}
	s.cache.Invalidate(ctx, categoriesKey)
	return nil
}
