package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"krishak/internal/apperror"
	"krishak/internal/models"
	"krishak/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

// AllCategories is the pseudo-category that disables category filtering.
const AllCategories = "All"

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Sort     string
}

// ProductInput is the seller-editable part of a product.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,min=2,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Category    string          `json:"category" validate:"required"`
	ImageURL    string          `json:"imageUrl" validate:"omitempty,url,max=500"`
	Unit        string          `json:"unitType" validate:"required,max=20"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo  repositories.ProductRepository
	users repositories.UserRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, users repositories.UserRepository) *ProductService {
	return &ProductService{
		repo:  repo,
		users: users,
	}
}

// Categories returns the selectable categories, "All" first.
func (s *ProductService) Categories() []string {
	return append([]string{AllCategories}, models.Categories...)
}

// List retrieves the catalog filtered and sorted per f.
func (s *ProductService) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := repositories.ProductQuery{
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
		Search:   strings.TrimSpace(f.Search),
		Sort:     f.Sort,
	}

	category := strings.ToLower(strings.TrimSpace(f.Category))
	if category != "" && category != strings.ToLower(AllCategories) {
		if !models.IsCategory(category) {
			return nil, apperror.ValidationFailed(map[string]string{"category": "Unknown category"})
		}
		q.Category = category
	}

	switch q.Sort {
	case "":
		q.Sort = repositories.SortNewest
	case repositories.SortNewest, repositories.SortPriceLowHigh, repositories.SortPriceHighLow, repositories.SortRatingHighLow:
	default:
		return nil, apperror.ValidationFailed(map[string]string{"sort": "Unknown sort order"})
	}

	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return nil, apperror.ValidationFailed(map[string]string{"minPrice": "minPrice must not exceed maxPrice"})
	}

	return s.repo.List(ctx, q)
}

// Get retrieves a single product by its ID.
func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// ListBySeller returns every product owned by sellerID, newest first.
func (s *ProductService) ListBySeller(ctx context.Context, sellerID string) ([]models.Product, error) {
	return s.repo.List(ctx, repositories.ProductQuery{SellerID: sellerID, Sort: repositories.SortNewest})
}

// Create lists a new product for sellerID.
func (s *ProductService) Create(ctx context.Context, sellerID string, in ProductInput) (*models.Product, error) {
	in, err := normalizeProductInput(in)
	if err != nil {
		return nil, err
	}

	seller, err := s.users.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if err := RequireRole(seller.UserType, models.Seller); err != nil {
		return nil, err
	}

	product := &models.Product{
		SellerID:   seller.ID,
		SellerName: seller.Name,
	}
	applyProductInput(product, in)

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// Update changes a product owned by sellerID.
func (s *ProductService) Update(ctx context.Context, sellerID, id string, in ProductInput) (*models.Product, error) {
	in, err := normalizeProductInput(in)
	if err != nil {
		return nil, err
	}

	product, err := s.owned(ctx, sellerID, id)
	if err != nil {
		return nil, err
	}
	applyProductInput(product, in)

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete removes a product owned by sellerID.
func (s *ProductService) Delete(ctx context.Context, sellerID, id string) error {
	if _, err := s.owned(ctx, sellerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ExportSellerProducts writes the seller's catalog to w as an xlsx workbook.
func (s *ProductService) ExportSellerProducts(ctx context.Context, sellerID string, w io.Writer) error {
	products, err := s.ListBySeller(ctx, sellerID)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, title := range []string{"ID", "Name", "Category", "Price", "Unit", "Stock", "Rating", "Reviews", "Listed"} {
		header.AddCell().SetValue(title)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Category)
		price, _ := p.Price.Float64()
		row.AddCell().SetValue(price)
		row.AddCell().SetValue(p.Unit)
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(p.Rating)
		row.AddCell().SetValue(p.ReviewCount)
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (s *ProductService) owned(ctx context.Context, sellerID, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID != sellerID {
		return nil, apperror.New(apperror.Forbidden, "You can only manage your own products")
	}
	return product, nil
}

func normalizeProductInput(in ProductInput) (ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Unit = strings.TrimSpace(in.Unit)

	if err := validateStruct(in); err != nil {
		return in, err
	}
	fields := map[string]string{}
	if !in.Price.IsPositive() {
		fields["price"] = "price must be greater than 0"
	}
	if !models.IsCategory(in.Category) {
		fields["category"] = "Unknown category"
	}
	if len(fields) > 0 {
		return in, apperror.ValidationFailed(fields)
	}
	return in, nil
}

func applyProductInput(p *models.Product, in ProductInput) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.Category = in.Category
	p.ImageURL = in.ImageURL
	p.Unit = in.Unit
}
