package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"krishak/internal/models"
	"krishak/internal/services"
)

// Development accounts created by seedDevData.
const (
	devSellerEmail = "seller@krishak.dev"
	devBuyerEmail  = "buyer@krishak.dev"
	devPassword    = "password123"
)

// seedDevData creates a seller, a buyer and a few listings for local runs.
func seedDevData(ctx context.Context, auth *services.AuthService, products *services.ProductService) error {
	seller, err := auth.Register(ctx, services.RegisterInput{
		Name:         "Ramesh Patel",
		Email:        devSellerEmail,
		Phone:        "9876543210",
		Password:     devPassword,
		UserType:     models.Seller,
		AadharNumber: "123412341234",
		Address:      models.Address{City: "Anand", State: "Gujarat", Pincode: "388001"},
	})
	if err != nil {
		return fmt.Errorf("seeding seller: %w", err)
	}
	if _, err := auth.Register(ctx, services.RegisterInput{
		Name:     "Meera Iyer",
		Email:    devBuyerEmail,
		Phone:    "9123456780",
		Password: devPassword,
		UserType: models.Buyer,
	}); err != nil {
		return fmt.Errorf("seeding buyer: %w", err)
	}

	listings := []services.ProductInput{
		{Name: "Fresh Tomatoes", Description: "Vine ripened, harvested this morning", Price: decimal.NewFromInt(40), Stock: 200, Category: "vegetables", Unit: "kg"},
		{Name: "Alphonso Mangoes", Description: "Ratnagiri alphonso, export grade", Price: decimal.NewFromInt(450), Stock: 50, Category: "fruits", Unit: "dozen"},
		{Name: "Basmati Rice", Description: "Aged two years", Price: decimal.NewFromInt(120), Stock: 500, Category: "grains", Unit: "kg"},
		{Name: "Buffalo Milk", Description: "Collected daily from the village dairy", Price: decimal.NewFromInt(60), Stock: 80, Category: "dairy", Unit: "litre"},
		{Name: "Organic Vermicompost", Description: "Rich in nutrients, odour free", Price: decimal.NewFromInt(15), Stock: 1000, Category: "fertilizers", Unit: "kg"},
	}
	for _, in := range listings {
		p, err := products.Create(ctx, seller.User.ID, in)
		if err != nil {
			return fmt.Errorf("seeding product %s: %w", in.Name, err)
		}
		log.WithFields(log.Fields{"id": p.ID, "name": p.Name}).Debug("Seeded product")
	}
	log.WithFields(log.Fields{"seller": devSellerEmail, "buyer": devBuyerEmail}).Info("Seeded development data")
	return nil
}
