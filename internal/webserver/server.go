package webserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/toughstore/internal/app"
	"github.com/talkincode/toughstore/internal/domain"
)

const (
	ContextKeyDB     = "db"
	ContextKeyClaims = "user"
)

// JwtClaims is the bearer-token payload for API callers.
type JwtClaims struct {
	Uid      int64  `json:"uid,string"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type WebServer struct {
	appctx app.AppContext
	root   *echo.Echo
}

var server *WebServer

// Init builds the global web server: echo with recovery, CORS, DB
// injection and JWT auth over /api, plus static hosting for the admin UI
// and uploaded files.
func Init(appctx app.AppContext) *WebServer {
	s := &WebServer{appctx: appctx, root: echo.New()}
	s.root.Pre(middleware.RemoveTrailingSlash())
	s.root.Use(middleware.Recover())
	s.root.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
	}))
	s.root.HideBanner = true
	s.root.HTTPErrorHandler = errorHandler

	// Per-request DB handle for GetDB(c).
	s.root.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextKeyDB, appctx.DB())
			return next(c)
		}
	})

	cfg := appctx.Config()
	s.root.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.Web.Secret),
		Skipper:    authSkipper,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(JwtClaims)
		},
		ContextKey: ContextKeyClaims,
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		},
	}))
	s.root.Use(blockedUserMiddleware(appctx))

	s.root.Static("/public", cfg.GetPublicDir())
	s.root.Static("/", cfg.System.Workdir+"/admin")

	server = s
	return s
}

// authSkipper leaves the auth endpoints and public catalog reads open.
func authSkipper(c echo.Context) bool {
	path := c.Path()
	if !strings.HasPrefix(path, "/api") {
		return true
	}
	if strings.HasPrefix(path, "/api/auth") {
		return true
	}
	if c.Request().Method == http.MethodGet && strings.HasPrefix(path, "/api/products") {
		return true
	}
	return false
}

// blockedUserMiddleware rejects authenticated requests from blocked
// accounts; blocking takes effect on the user's next call.
func blockedUserMiddleware(appctx app.AppContext) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := CurrentUser(c)
			if claims == nil {
				return next(c)
			}
			var blocked bool
			err := appctx.DB().Model(&domain.User{}).
				Select("blocked").
				Where("id = ?", claims.Uid).
				Scan(&blocked).Error
			if err != nil {
				zap.L().Error("blocked-user check failed", zap.Int64("uid", claims.Uid), zap.Error(err))
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
			if blocked {
				return echo.NewHTTPError(http.StatusForbidden, "account is blocked")
			}
			return next(c)
		}
	}
}

// CurrentUser returns the JWT claims for the request, or nil on public
// routes.
func CurrentUser(c echo.Context) *JwtClaims {
	token, ok := c.Get(ContextKeyClaims).(*jwt.Token)
	if !ok || token == nil {
		return nil
	}
	claims, ok := token.Claims.(*JwtClaims)
	if !ok {
		return nil
	}
	return claims
}

// IssueToken signs a bearer token for the user.
func IssueToken(secret string, expire time.Duration, u *domain.User) (string, error) {
	claims := JwtClaims{
		Uid:      u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expire)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// GetDB fetches the request-scoped database handle.
func GetDB(c echo.Context) *gorm.DB {
	return c.Get(ContextKeyDB).(*gorm.DB)
}

func errorHandler(err error, c echo.Context) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if !c.Response().Committed {
			_ = c.JSON(he.Code, map[string]interface{}{"message": fmt.Sprint(he.Message)})
		}
		return
	}
	zap.L().Error("unhandled api error", zap.String("path", c.Path()), zap.Error(err))
	if !c.Response().Committed {
		_ = c.JSON(http.StatusInternalServerError, map[string]interface{}{"message": "internal server error"})
	}
}

// Route registration helpers. Handlers are attached to the shared server
// instance by the adminapi package at boot.

func ApiGET(path string, h echo.HandlerFunc) {
	server.root.GET("/api"+path, h)
}

func ApiPOST(path string, h echo.HandlerFunc) {
	server.root.POST("/api"+path, h)
}

func ApiPUT(path string, h echo.HandlerFunc) {
	server.root.PUT("/api"+path, h)
}

func ApiPATCH(path string, h echo.HandlerFunc) {
	server.root.PATCH("/api"+path, h)
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	server.root.DELETE("/api"+path, h)
}

// Echo exposes the underlying echo engine (used in tests).
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

// Start blocks serving HTTP until the listener fails.
func (s *WebServer) Start() error {
	cfg := s.appctx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.L().Info("starting web server", zap.String("addr", addr))
	return s.root.Start(addr)
}
