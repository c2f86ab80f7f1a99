package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/internal/webserver"
	"github.com/talkincode/toughstore/pkg/common"
)

type loginPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type registerPayload struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type authResponse struct {
	AccessToken string       `json:"accessToken"`
	User        *domain.User `json:"user"`
}

func registerAuthRoutes() {
	webserver.ApiPOST("/auth/login", loginHandler)
	webserver.ApiPOST("/auth/register", registerHandler)
}

func loginHandler(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "unable to parse credentials")
	}
	if payload.Username == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "username and password are required")
	}

	var user domain.User
	if err := GetDB(c).Where("username = ?", payload.Username).First(&user).Error; err != nil {
		return failFor(c, fmt.Errorf("%w: unknown username or wrong password", domain.ErrAuth))
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)) != nil {
		return failFor(c, fmt.Errorf("%w: unknown username or wrong password", domain.ErrAuth))
	}

	if user.Blocked {
		return fail(c, http.StatusForbidden, "account is blocked")
	}

	GetDB(c).Model(&domain.User{}).Where("id = ?", user.ID).Update("last_login", time.Now())

	token, err := issueToken(c, &user)
	if err != nil {
		return err
	}
	zap.L().Info("user logged in", zap.String("username", user.Username))
	return ok(c, authResponse{AccessToken: token, User: &user})
}

func registerHandler(c echo.Context) error {
	var payload registerPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "unable to parse registration data")
	}
	payload.Username = strings.TrimSpace(payload.Username)
	payload.Email = strings.TrimSpace(payload.Email)
	if payload.Username == "" || payload.Email == "" || payload.Password == "" {
		return fail(c, http.StatusBadRequest, "username, email and password are required")
	}

	var count int64
	GetDB(c).Model(&domain.User{}).
		Where("username = ? or email = ?", payload.Username, payload.Email).
		Count(&count)
	if count > 0 {
		return fail(c, http.StatusBadRequest, "user with this username or email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := domain.User{
		ID:       common.UUIDint64(),
		Username: payload.Username,
		Email:    payload.Email,
		Password: string(hashed),
		Role:     domain.RoleUser,
	}
	if err := GetDB(c).Create(&user).Error; err != nil {
		return err
	}

	token, err := issueToken(c, &user)
	if err != nil {
		return err
	}
	zap.L().Info("user registered", zap.String("username", user.Username))
	return created(c, authResponse{AccessToken: token, User: &user})
}

func issueToken(c echo.Context, user *domain.User) (string, error) {
	cfg := appctx.Config()
	expire := time.Duration(cfg.Web.JwtExpire) * time.Hour
	if expire <= 0 {
		expire = 24 * time.Hour
	}
	return webserver.IssueToken(cfg.Web.Secret, expire, user)
}
