package service

import (
	"context"

	"go-gin-gorm-blog/internal/core/apperr"
	"go-gin-gorm-blog/internal/domain"
	"go-gin-gorm-blog/internal/repo"
)

// UserAdminService 后台用户管理
type UserAdminService struct{ users *repo.UserRepo }

func NewUserAdminService(users *repo.UserRepo) *UserAdminService {
	return &UserAdminService{users: users}
}

type UserListQuery struct {
	Offset      int    `form:"offset,default=0"`
	Limit       int    `form:"limit,default=20"`
	Q           string `form:"q"`
	WithDeleted bool   `form:"with_deleted"`
}

type AdminUserRow struct {
	UserView
	Banned bool `json:"banned"`
}

type UserList struct {
	Total int64          `json:"total"`
	Items []AdminUserRow `json:"items"`
}

func (s *UserAdminService) List(ctx context.Context, caller domain.Caller, q UserListQuery) (UserList, error) {
	if err := requireAdmin(caller, "forbidden"); err != nil {
		return UserList{}, err
	}
	if q.Limit <= 0 || q.Limit > MaxPageSize {
		q.Limit = DefaultPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	us, total, err := s.users.List(ctx, repo.UserQuery{
		Offset: q.Offset, Limit: q.Limit, Q: q.Q, WithDeleted: q.WithDeleted,
	})
	if err != nil {
		return UserList{}, apperr.FromStore("list users", err)
	}
	out := UserList{Total: total, Items: make([]AdminUserRow, 0, len(us))}
	for i := range us {
		out.Items = append(out.Items, AdminUserRow{UserView: NewUserView(&us[i]), Banned: us[i].DeletedAt.Valid})
	}
	return out, nil
}

// Ban 软删用户；管理员不能封禁自己
func (s *UserAdminService) Ban(ctx context.Context, caller domain.Caller, id string) error {
	if err := requireAdmin(caller, "forbidden"); err != nil {
		return err
	}
	if id == caller.UserID {
		return apperr.BadRequest("You cannot ban yourself.")
	}
	n, err := s.users.SoftDelete(ctx, id)
	if err != nil {
		return apperr.FromStore("ban user", err)
	}
	if n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// Promote grants admin rights by username. Used by the admin binary's -promote flag.
func (s *UserAdminService) Promote(ctx context.Context, username string) error {
	n, err := s.users.SetAdmin(ctx, username, true)
	if err != nil {
		return apperr.FromStore("promote user", err)
	}
	if n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
