package service

import (
	"context"
	"errors"
	"time"

	"go-gin-gorm-blog/internal/core/apperr"
	"go-gin-gorm-blog/internal/core/storage"
	"go-gin-gorm-blog/internal/domain"
	"go-gin-gorm-blog/internal/repo"
)

type ProfileService struct {
	users *repo.UserRepo
	store storage.Store
}

func NewProfileService(users *repo.UserRepo, store storage.Store) *ProfileService {
	return &ProfileService{users: users, store: store}
}

type PictureResult struct {
	ProfilePicture string `json:"profile_picture"`
}

func (s *ProfileService) UpdatePicture(ctx context.Context, caller domain.Caller, u *storage.Upload) (PictureResult, error) {
	if err := requireAuth(caller); err != nil {
		return PictureResult{}, err
	}
	if u == nil {
		return PictureResult{}, apperr.BadRequest("No image uploaded")
	}
	if err := storage.ValidateImage(u); err != nil {
		if errors.Is(err, storage.ErrImageTooLarge) || errors.Is(err, storage.ErrImageType) {
			return PictureResult{}, apperr.Invalid("validation failed", map[string]string{"profile_picture": err.Error()})
		}
		return PictureResult{}, apperr.BadRequest("unreadable image upload")
	}
	key := storage.ObjectKey("profile_pics", u.Filename, time.Now())
	url, err := s.store.Put(ctx, key, u.Body, u.Size, u.ContentType)
	if err != nil {
		return PictureResult{}, apperr.Unavailable("image storage unavailable, please try again later", err)
	}
	if err := s.users.UpdateProfilePicture(ctx, caller.UserID, url); err != nil {
		_ = s.store.Remove(ctx, key)
		return PictureResult{}, apperr.FromStore("update profile picture", err)
	}
	return PictureResult{ProfilePicture: url}, nil
}
