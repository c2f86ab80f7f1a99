package adminapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/talkincode/toughstore/internal/catalog"
	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/internal/webserver"
	"github.com/talkincode/toughstore/pkg/common"
)

func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	var activeOnly *bool
	switch c.QueryParam("active") {
	case "true":
		v := true
		activeOnly = &v
	case "false":
		v := false
		activeOnly = &v
	}

	// Customers only ever see active products; the unfiltered view is
	// reserved for authenticated admins.
	claims := webserver.CurrentUser(c)
	if claims == nil || claims.Role != domain.RoleAdmin {
		v := true
		activeOnly = &v
	}

	products, err := catalogSrv.FindAll(c.Request().Context(), activeOnly)
	if err != nil {
		return err
	}
	return ok(c, products)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}
	p, err := catalogSrv.FindByID(c.Request().Context(), id)
	if err != nil {
		return failFor(c, err)
	}
	return ok(c, p)
}

// productDataFromForm builds catalog input from the multipart form,
// including an optional uploaded image.
func productDataFromForm(c echo.Context) (catalog.ProductData, error) {
	data := catalog.ProductData{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       -1,
	}
	if v := c.FormValue("price"); v != "" {
		price, err := cast.ToFloat64E(v)
		if err != nil || price < 0 {
			return data, fmt.Errorf("%w: invalid price", domain.ErrValidation)
		}
		data.Price = price
	}
	if v := c.FormValue("stock_qty"); v != "" {
		qty, err := cast.ToIntE(v)
		if err != nil {
			return data, fmt.Errorf("%w: invalid stock quantity", domain.ErrValidation)
		}
		data.StockQty = &qty
	}
	if v := c.FormValue("active"); v != "" {
		active, err := cast.ToBoolE(v)
		if err != nil {
			return data, fmt.Errorf("%w: invalid active flag", domain.ErrValidation)
		}
		data.Active = &active
	}

	imageUrl, err := saveUploadedImage(c)
	if err != nil {
		return data, err
	}
	data.ImageUrl = imageUrl
	return data, nil
}

// saveUploadedImage stores the optional "image" form file under the upload
// directory and returns its public URL, or "" when no file was sent.
func saveUploadedImage(c echo.Context) (string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return "", nil
	}

	ext := strings.ToLower(path.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		return "", fmt.Errorf("%w: unsupported image type %s", domain.ErrValidation, ext)
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	filename := fmt.Sprintf("%d%s", common.UUIDint64(), ext)
	uploadDir := appctx.Config().GetUploadDir()
	dst, err := os.Create(path.Join(uploadDir, filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	zap.L().Info("stored product image", zap.String("filename", filename))
	return path.Join("/public/uploads/products", filename), nil
}

func createProduct(c echo.Context) error {
	if _, err := requireRole(c, domain.RoleAdmin); err != nil {
		return err
	}
	data, err := productDataFromForm(c)
	if err != nil {
		return failFor(c, err)
	}
	if data.Price < 0 {
		data.Price = 0
	}
	p, err := catalogSrv.Create(c.Request().Context(), data)
	if err != nil {
		return failFor(c, err)
	}
	return created(c, p)
}

func updateProduct(c echo.Context) error {
	if _, err := requireRole(c, domain.RoleAdmin); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}
	data, err := productDataFromForm(c)
	if err != nil {
		return failFor(c, err)
	}
	p, err := catalogSrv.Update(c.Request().Context(), id, data)
	if err != nil {
		return failFor(c, err)
	}
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	if _, err := requireRole(c, domain.RoleAdmin); err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid product id")
	}
	if err := catalogSrv.Delete(c.Request().Context(), id); err != nil {
		return failFor(c, err)
	}
	return ok(c, map[string]interface{}{"success": true})
}
