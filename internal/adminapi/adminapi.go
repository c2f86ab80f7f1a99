package adminapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/talkincode/toughstore/internal/app"
	"github.com/talkincode/toughstore/internal/catalog"
	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/internal/notify"
	"github.com/talkincode/toughstore/internal/order"
	"github.com/talkincode/toughstore/internal/webserver"
)

var (
	appctx      app.AppContext
	catalogSrv  *catalog.Service
	orderSrv    *order.Service
	notifierSrv *notify.Service
)

// InitRouter wires the REST handlers onto the web server.
func InitRouter(a app.AppContext, products *catalog.Service, orders *order.Service, notifier *notify.Service) {
	appctx = a
	catalogSrv = products
	orderSrv = orders
	notifierSrv = notifier

	registerAuthRoutes()
	registerProductRoutes()
	registerOrderRoutes()
	registerUserRoutes()
}

// GetDB fetches the request-scoped database handle.
func GetDB(c echo.Context) *gorm.DB {
	return webserver.GetDB(c)
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]interface{}{"message": message})
}

// failFor maps domain errors onto HTTP statuses; unknown errors become a
// sanitized 500 so persistence details never leak to clients.
func failFor(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInactiveProduct),
		errors.Is(err, domain.ErrEmptyCart):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAuth):
		return fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return fail(c, http.StatusForbidden, err.Error())
	default:
		return err
	}
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// requireRole rejects callers whose role is outside the allowed set.
func requireRole(c echo.Context, roles ...string) (*webserver.JwtClaims, error) {
	claims := webserver.CurrentUser(c)
	if claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	for _, role := range roles {
		if claims.Role == role {
			return claims, nil
		}
	}
	return nil, echo.NewHTTPError(http.StatusForbidden, "access denied")
}
