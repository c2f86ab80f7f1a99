package adminapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/internal/order"
	"github.com/talkincode/toughstore/internal/webserver"
)

type createOrderPayload struct {
	Items           []order.ItemRequest `json:"items"`
	ShippingAddress string              `json:"shipping_address"`
	ContactPhone    string              `json:"contact_phone"`
}

type updateStatusPayload struct {
	Status string `json:"status"`
}

func registerOrderRoutes() {
	webserver.ApiGET("/orders", listOrders)
	webserver.ApiGET("/orders/:id", getOrder)
	webserver.ApiPOST("/orders", createOrder)
	webserver.ApiPATCH("/orders/:id/status", updateOrderStatus)
}

func listOrders(c echo.Context) error {
	claims := webserver.CurrentUser(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	filters := order.Filters{Status: c.QueryParam("status")}
	if v := c.QueryParam("startDate"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filters.StartDate = t
		}
	}
	if v := c.QueryParam("endDate"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			// inclusive end of day
			filters.EndDate = t.Add(24*time.Hour - time.Nanosecond)
		}
	}

	// Non-admins only see their own orders.
	if claims.Role != domain.RoleAdmin {
		filters.UserId = claims.Username
	}

	orders, err := orderSrv.FindAll(c.Request().Context(), filters)
	if err != nil {
		return err
	}
	return ok(c, orders)
}

func getOrder(c echo.Context) error {
	claims := webserver.CurrentUser(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid order id")
	}

	o, err := orderSrv.FindByID(c.Request().Context(), id)
	if err != nil {
		return failFor(c, err)
	}
	if claims.Role != domain.RoleAdmin && o.UserId != claims.Username {
		return fail(c, http.StatusForbidden, "access denied")
	}
	return ok(c, o)
}

func createOrder(c echo.Context) error {
	claims := webserver.CurrentUser(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var payload createOrderPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "unable to parse order")
	}

	o, err := orderSrv.Create(c.Request().Context(), claims.Username, payload.Items, payload.ShippingAddress, payload.ContactPhone)
	if err != nil {
		return failFor(c, err)
	}

	// Fire-and-forget: the committed order stands regardless of the
	// notification outcome.
	go func(o *domain.Order) {
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("order notification panicked", zap.Any("panic", r))
			}
		}()
		notifierSrv.NotifyNewOrder(context.Background(), o, appctx.Config().Admin.Email)
	}(o)

	return created(c, o)
}

func updateOrderStatus(c echo.Context) error {
	if _, err := requireRole(c, domain.RoleAdmin); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid order id")
	}

	var payload updateStatusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "unable to parse status")
	}
	if !domain.ValidOrderStatus(payload.Status) {
		return fail(c, http.StatusBadRequest, "invalid order status")
	}

	o, err := orderSrv.UpdateStatus(c.Request().Context(), id, payload.Status)
	if err != nil {
		return failFor(c, err)
	}
	return ok(c, o)
}
