package api

import (
	"context"
	"errors"
	"log/slog"

	"jobboard/internal/api/auth"
	"jobboard/internal/model"

	"gorm.io/gorm"
)

// SeedAdmin 确保种子管理员账号存在。
//
// 以邮箱为准做幂等检查：已存在则只补齐管理员标记，不改密码。
// 每次启动都会执行一次。
func (s *Server) SeedAdmin(ctx context.Context) error {
	email := auth.NormalizeEmail(s.cfg.Security.AdminEmail)
	if email == "" {
		return errors.New("admin email not configured")
	}

	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, hashErr := auth.HashPassword(s.cfg.Security.AdminPassword)
		if hashErr != nil {
			return hashErr
		}
		user = model.User{
			Email:        email,
			PasswordHash: hash,
			IsAdmin:      true,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return err
		}
		s.logger.Info("seed admin created", slog.String("email", email))
		return nil
	}

	if !user.IsAdmin {
		if err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Update("is_admin", true).Error; err != nil {
			return err
		}
	}
	s.logger.Info("seed admin present", slog.String("email", email))
	return nil
}
