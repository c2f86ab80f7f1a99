package app

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/pkg/common"
)

// checkSuper ensures the configured admin account exists and stays usable.
func (a *Application) checkSuper() {
	adminCfg := a.appConfig.Admin

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminCfg.Password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("failed to hash default admin password", zap.Error(err))
		return
	}

	var admin domain.User
	err = a.gormDB.Where("username = ?", adminCfg.Username).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.User{
			ID:        common.UUIDint64(),
			Username:  adminCfg.Username,
			Email:     adminCfg.Email,
			Password:  string(hashed),
			Role:      domain.RoleAdmin,
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default admin account", zap.String("username", adminCfg.Username))
		}
		return
	case err != nil:
		zap.L().Error("failed to query admin account", zap.Error(err))
		return
	}

	resetRole := !strings.EqualFold(admin.Role, domain.RoleAdmin)
	resetBlocked := admin.Blocked

	if !resetRole && !resetBlocked {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resetRole {
		updates["role"] = domain.RoleAdmin
	}
	if resetBlocked {
		updates["blocked"] = false
	}

	if err := a.gormDB.Model(&domain.User{}).Where("id = ?", admin.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair admin account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default admin account",
		zap.String("username", adminCfg.Username),
		zap.Bool("roleReset", resetRole),
		zap.Bool("unblocked", resetBlocked))
}

// checkDemoProducts seeds a starter catalog on an empty database when
// running in debug mode.
func (a *Application) checkDemoProducts() {
	if !a.appConfig.System.Debug {
		return
	}

	var count int64
	if err := a.gormDB.Model(&domain.Product{}).Count(&count).Error; err != nil || count > 0 {
		return
	}

	defaultProducts := []domain.Product{
		{Name: "demo-widget-basic", Description: "Базовый виджет", Price: 9.99, StockQty: 100, Active: true},
		{Name: "demo-widget-pro", Description: "Расширенный виджет", Price: 24.5, StockQty: 50, Active: true},
		{Name: "demo-addon-support", Description: "Дополнение", Price: 49.95, StockQty: 200, Active: true},
	}

	for _, p := range defaultProducts {
		p.ID = common.UUIDint64()
		p.CreatedAt = time.Now()
		p.UpdatedAt = time.Now()
		if err := a.gormDB.Create(&p).Error; err != nil {
			zap.L().Error("failed to create demo product", zap.String("name", p.Name), zap.Error(err))
		} else {
			zap.L().Info("initialized demo product", zap.String("name", p.Name))
		}
	}
}
