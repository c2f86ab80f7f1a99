package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/internal/webserver"
)

func registerUserRoutes() {
	webserver.ApiGET("/users", listUsers)
	webserver.ApiGET("/users/:id", getUser)
	webserver.ApiPATCH("/users/:id/block", blockUser)
	webserver.ApiPATCH("/users/:id/unblock", unblockUser)
}

func listUsers(c echo.Context) error {
	if _, err := requireRole(c, domain.RoleAdmin); err != nil {
		return err
	}
	var users []domain.User
	if err := GetDB(c).Order("created_at DESC").Find(&users).Error; err != nil {
		return err
	}
	return ok(c, users)
}

func getUser(c echo.Context) error {
	if _, err := requireRole(c, domain.RoleAdmin); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}
	var user domain.User
	if err := GetDB(c).Where("id = ?", id).First(&user).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "user not found")
	} else if err != nil {
		return err
	}
	return ok(c, user)
}

func blockUser(c echo.Context) error {
	if _, err := requireRole(c, domain.RoleAdmin); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}

	var user domain.User
	if err := GetDB(c).Where("id = ?", id).First(&user).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "user not found")
	} else if err != nil {
		return err
	}

	// Admin accounts can never be blocked.
	if user.Role == domain.RoleAdmin {
		return failFor(c, fmt.Errorf("%w: cannot block an administrator", domain.ErrForbidden))
	}

	if err := GetDB(c).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"blocked": true, "updated_at": time.Now()}).Error; err != nil {
		return err
	}
	user.Blocked = true
	zap.L().Info("user blocked", zap.String("username", user.Username))
	return ok(c, user)
}

func unblockUser(c echo.Context) error {
	if _, err := requireRole(c, domain.RoleAdmin); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid user id")
	}

	var user domain.User
	if err := GetDB(c).Where("id = ?", id).First(&user).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "user not found")
	} else if err != nil {
		return err
	}

	if err := GetDB(c).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"blocked": false, "updated_at": time.Now()}).Error; err != nil {
		return err
	}
	user.Blocked = false
	zap.L().Info("user unblocked", zap.String("username", user.Username))
	return ok(c, user)
}
