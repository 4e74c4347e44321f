package handlers

import (
	"bytes"
	"fmt"

	"krishak/internal/apperror"
	"krishak/internal/middleware"
	"krishak/internal/models"
	"krishak/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes registers the product routes. Reads are public; writes
// and the seller's own listing need a seller token.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	seller := middleware.RequireRole(models.Seller)

	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleList)
	productRoutes.Get("/categories", h.HandleCategories)
	productRoutes.Get("/mine", auth, seller, h.HandleListMine)
	productRoutes.Get("/mine/export", auth, seller, h.HandleExportMine)
	productRoutes.Get("/:id", h.HandleGet)
	productRoutes.Post("/", auth, seller, h.HandleCreate)
	productRoutes.Put("/:id", auth, seller, h.HandleUpdate)
	productRoutes.Delete("/:id", auth, seller, h.HandleDelete)
}

// HandleList returns the filtered catalog.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	filter := services.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}
	var err error
	if filter.MinPrice, err = queryDecimal(c, "minPrice"); err != nil {
		return respondError(c, err)
	}
	if filter.MaxPrice, err = queryDecimal(c, "maxPrice"); err != nil {
		return respondError(c, err)
	}

	products, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"count":    len(products),
		"products": products,
	})
}

// HandleCategories returns the selectable categories.
func (h *ProductHandler) HandleCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":    true,
		"categories": h.service.Categories(),
	})
}

// HandleGet returns one product.
func (h *ProductHandler) HandleGet(c *fiber.Ctx) error {
	product, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// HandleListMine returns the caller's own products.
func (h *ProductHandler) HandleListMine(c *fiber.Ctx) error {
	products, err := h.service.ListBySeller(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"count":    len(products),
		"products": products,
	})
}

// HandleExportMine downloads the caller's products as a spreadsheet.
func (h *ProductHandler) HandleExportMine(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.service.ExportSellerProducts(c.UserContext(), middleware.UserID(c), &buf); err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentDisposition, "attachment; filename=products.xlsx")
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(buf.Bytes())
}

// HandleCreate lists a new product.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	product, err := h.service.Create(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// HandleUpdate changes one of the caller's products.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	var req services.ProductInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	product, err := h.service.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// HandleDelete removes one of the caller's products.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product removed",
	})
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperror.ValidationFailed(map[string]string{key: fmt.Sprintf("%s must be a number", key)})
	}
	return &d, nil
}
