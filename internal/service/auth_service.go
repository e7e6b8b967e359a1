package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"go-gin-gorm-blog/internal/core/apperr"
	"go-gin-gorm-blog/internal/core/auth"
	"go-gin-gorm-blog/internal/core/mailer"
	"go-gin-gorm-blog/internal/domain"
	"go-gin-gorm-blog/internal/repo"
	"go-gin-gorm-blog/pkg/utils"
)

const (
	MsgResetSent   = "If email exists, a reset link will be sent."
	msgBadLogin    = "Invalid username/email or password"
	msgBadLink     = "Invalid reset link."
	msgBadResetTok = "Invalid or expired token."
)

type AuthService struct {
	users     *repo.UserRepo
	jwt       *auth.JWTer
	revoker   auth.Revoker
	reset     *auth.ResetTokens
	mail      mailer.Sender
	resetLink string // 前端重置页，例如 http://localhost:3000/reset-password
	log       *zap.Logger
}

type AuthDeps struct {
	Users     *repo.UserRepo
	JWT       *auth.JWTer
	Revoker   auth.Revoker
	Reset     *auth.ResetTokens
	Mail      mailer.Sender
	ResetLink string
	Log       *zap.Logger
}

func NewAuthService(d AuthDeps) *AuthService {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &AuthService{
		users: d.Users, jwt: d.JWT, revoker: d.Revoker, reset: d.Reset,
		mail: d.Mail, resetLink: strings.TrimRight(d.ResetLink, "/"), log: d.Log,
	}
}

func identityOf(u *domain.User) auth.Identity {
	return auth.Identity{UID: u.ID, Username: u.Username, Email: u.Email, IsAdmin: u.IsAdmin}
}

type RegisterInput struct {
	Username  string `json:"username"  validate:"required,max=150,username"`
	Email     string `json:"email"     validate:"required,email,max=191"`
	Password  string `json:"password"  validate:"required"`
	Password2 string `json:"password2" validate:"required"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (UserView, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := check(in); err != nil {
		return UserView{}, err
	}
	if in.Password != in.Password2 {
		return UserView{}, apperr.Invalid("validation failed", map[string]string{"password": "Passwords do not match."})
	}
	if err := utils.CheckPasswordStrength(in.Password, in.Username, in.Email); err != nil {
		return UserView{}, apperr.Invalid("validation failed", map[string]string{"password": err.Error()})
	}

	uTaken, eTaken, err := s.users.Taken(ctx, in.Username, in.Email)
	if err != nil {
		return UserView{}, apperr.FromStore("check user", err)
	}
	if uTaken || eTaken {
		fields := map[string]string{}
		if uTaken {
			fields["username"] = "A user with that username already exists."
		}
		if eTaken {
			fields["email"] = "A user with that email already exists."
		}
		return UserView{}, apperr.Invalid("validation failed", fields)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return UserView{}, apperr.Internal("hash password", err)
	}
	u := &domain.User{ID: utils.NewID(), Username: in.Username, Email: in.Email, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		// 并发注册撞唯一索引
		if apperr.IsDupKey(err) {
			return UserView{}, apperr.Invalid("validation failed", map[string]string{
				"username": "A user with that username or email already exists.",
			})
		}
		return UserView{}, apperr.FromStore("create user", err)
	}
	return NewUserView(u), nil
}

type LoginInput struct {
	Identifier string `json:"identifier" validate:"required"` // username 或 email
	Username   string `json:"username"`                       // 兼容旧前端字段
	Password   string `json:"password"   validate:"required"`
}

// Login tries identifier as a username first, then as an email.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (auth.Pair, error) {
	if strings.TrimSpace(in.Identifier) == "" {
		in.Identifier = in.Username
	}
	in.Identifier = strings.TrimSpace(in.Identifier)
	if err := check(in); err != nil {
		return auth.Pair{}, err
	}
	u, err := s.authenticate(ctx, in.Identifier, in.Password)
	if err != nil {
		return auth.Pair{}, err
	}
	pair, err := s.jwt.IssuePair(identityOf(u))
	if err != nil {
		return auth.Pair{}, apperr.Internal("issue token failed", err)
	}
	return pair, nil
}

func (s *AuthService) authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	u, err := s.users.FindByUsername(ctx, identifier)
	if err != nil {
		return nil, apperr.FromStore("find user", err)
	}
	if u != nil && utils.CheckPassword(password, u.PasswordHash) {
		return u, nil
	}
	u, err = s.users.FindByEmail(ctx, identifier)
	if err != nil {
		return nil, apperr.FromStore("find user", err)
	}
	if u != nil && utils.CheckPassword(password, u.PasswordHash) {
		return u, nil
	}
	return nil, apperr.Unauthorized(msgBadLogin)
}

type AccessToken struct {
	Access string `json:"access"`
}

// Refresh trades a live refresh token for a new access token built from the current user row.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (AccessToken, error) {
	claims, err := s.jwt.ParseAs(refresh, auth.TypeRefresh)
	if err != nil {
		return AccessToken{}, apperr.Unauthorized("Token is invalid or expired")
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return AccessToken{}, apperr.FromStore("check token", err)
	}
	if revoked {
		return AccessToken{}, apperr.Unauthorized("Token is blacklisted")
	}
	u, err := s.users.FindByID(ctx, claims.UID)
	if err != nil {
		return AccessToken{}, apperr.FromStore("find user", err)
	}
	if u == nil {
		return AccessToken{}, apperr.Unauthorized("User not found")
	}
	tok, err := s.jwt.Issue(identityOf(u))
	if err != nil {
		return AccessToken{}, apperr.Internal("issue token failed", err)
	}
	return AccessToken{Access: tok}, nil
}

// Logout revokes the caller's refresh token until it expires.
func (s *AuthService) Logout(ctx context.Context, caller domain.Caller, refresh string) error {
	if err := requireAuth(caller); err != nil {
		return err
	}
	if strings.TrimSpace(refresh) == "" {
		return apperr.Invalid("validation failed", map[string]string{"refresh": "Refresh token required."})
	}
	claims, err := s.jwt.ParseAs(refresh, auth.TypeRefresh)
	if err != nil {
		return apperr.BadRequest("Token is invalid or expired")
	}
	if claims.UID != caller.UserID {
		return apperr.Forbidden("Token does not belong to the current user.")
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.FromStore("revoke token", err)
	}
	return nil
}

type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RequestPasswordReset never reveals whether the email is registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, in ResetRequest) (string, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := check(in); err != nil {
		return "", err
	}
	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		s.log.Error("password reset lookup", zap.Error(err))
		return MsgResetSent, nil
	}
	if u == nil {
		return MsgResetSent, nil
	}
	tok, err := s.reset.Make(u.ID, u.PasswordHash)
	if err != nil {
		s.log.Error("password reset token", zap.String("uid", u.ID), zap.Error(err))
		return MsgResetSent, nil
	}
	link := s.resetLink + "/" + auth.EncodeUID(u.ID) + "/" + tok
	body := "Click this link to reset your password: " + link
	if err := s.mail.Send(ctx, u.Email, "Password Reset", body); err != nil {
		s.log.Warn("password reset mail", zap.String("uid", u.ID), zap.Error(err))
	}
	return MsgResetSent, nil
}

type ResetConfirm struct {
	NewPassword string `json:"new_password" validate:"required"`
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, uidb64, token string, in ResetConfirm) error {
	if err := check(in); err != nil {
		return err
	}
	uid, err := auth.DecodeUID(uidb64)
	if err != nil || uid == "" {
		return apperr.BadRequest(msgBadLink)
	}
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return apperr.FromStore("find user", err)
	}
	if u == nil {
		return apperr.BadRequest(msgBadLink)
	}
	if err := s.reset.Check(token, u.ID, u.PasswordHash); err != nil {
		return apperr.BadRequest(msgBadResetTok)
	}
	if err := utils.CheckPasswordStrength(in.NewPassword, u.Username, u.Email); err != nil {
		return apperr.Invalid("validation failed", map[string]string{"new_password": err.Error()})
	}
	hash, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return apperr.FromStore("update password", err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, caller domain.Caller) (UserView, error) {
	if err := requireAuth(caller); err != nil {
		return UserView{}, err
	}
	u, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return UserView{}, apperr.FromStore("find user", err)
	}
	if u == nil {
		return UserView{}, apperr.NotFound("User not found")
	}
	return NewUserView(u), nil
}

// Active reports whether uid still belongs to a usable (not banned) account.
func (s *AuthService) Active(ctx context.Context, uid string) (bool, error) {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return false, apperr.FromStore("find user", err)
	}
	return u != nil, nil
}
