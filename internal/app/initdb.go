package app

import (
	"context"

	"github.com/talkincode/sweetshop/internal/inventory"
	"go.uber.org/zap"
)

var sampleSweets = []inventory.CreateInput{
	{Name: "Milk Chocolate Bar", Category: "chocolate", Price: "2.99", Quantity: 100,
		Description: "Classic smooth milk chocolate",
		ImageURL:    "https://via.placeholder.com/200x200/8B4513/ffffff?text=Chocolate"},
	{Name: "Dark Chocolate Bar", Category: "chocolate", Price: "3.49", Quantity: 75,
		Description: "Rich 70% dark chocolate",
		ImageURL:    "https://via.placeholder.com/200x200/4B3621/ffffff?text=Dark+Choco"},
	{Name: "Gummy Bears", Category: "gummy", Price: "1.99", Quantity: 200,
		Description: "Assorted fruity gummy bears",
		ImageURL:    "https://via.placeholder.com/200x200/FF6B6B/ffffff?text=Gummy+Bears"},
	{Name: "Gummy Worms", Category: "gummy", Price: "2.49", Quantity: 150,
		Description: "Sour gummy worms",
		ImageURL:    "https://via.placeholder.com/200x200/4ECDC4/ffffff?text=Gummy+Worms"},
	{Name: "Lollipops", Category: "candy", Price: "0.99", Quantity: 300,
		Description: "Colorful fruit-flavored lollipops",
		ImageURL:    "https://via.placeholder.com/200x200/FFD93D/ffffff?text=Lollipop"},
	{Name: "Candy Canes", Category: "candy", Price: "1.49", Quantity: 120,
		Description: "Peppermint candy canes",
		ImageURL:    "https://via.placeholder.com/200x200/FF6B9D/ffffff?text=Candy+Cane"},
	{Name: "Jelly Beans", Category: "candy", Price: "3.99", Quantity: 180,
		Description: "Assorted gourmet jelly beans",
		ImageURL:    "https://via.placeholder.com/200x200/A8E6CF/ffffff?text=Jelly+Beans"},
	{Name: "Marshmallows", Category: "candy", Price: "2.29", Quantity: 90,
		Description: "Soft and fluffy marshmallows",
		ImageURL:    "https://via.placeholder.com/200x200/FFDAC1/ffffff?text=Marshmallow"},
	{Name: "Licorice Twists", Category: "candy", Price: "1.79", Quantity: 85,
		Description: "Classic black licorice twists",
		ImageURL:    "https://via.placeholder.com/200x200/2C3E50/ffffff?text=Licorice"},
	{Name: "Mint Chocolates", Category: "chocolate", Price: "4.99", Quantity: 60,
		Description: "Premium chocolate with mint filling",
		ImageURL:    "https://via.placeholder.com/200x200/16A085/ffffff?text=Mint+Choco"},
	{Name: "Caramel Chews", Category: "candy", Price: "2.99", Quantity: 110,
		Description: "Soft caramel candy chews",
		ImageURL:    "https://via.placeholder.com/200x200/D4A574/ffffff?text=Caramel"},
	{Name: "Sour Patch Kids", Category: "gummy", Price: "2.79", Quantity: 140,
		Description: "Sour then sweet gummy candy",
		ImageURL:    "https://via.placeholder.com/200x200/F39C12/ffffff?text=Sour+Patch"},
}

// SeedSweets fills an empty catalog with the sample sweets and returns the
// number created. A catalog that already has records is left alone.
func (a *Application) SeedSweets(ctx context.Context) (int, error) {
	rows, err := a.store.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(rows) > 0 {
		zap.L().Info("catalog already seeded", zap.Int("count", len(rows)))
		return 0, nil
	}
	created := 0
	for _, in := range sampleSweets {
		if _, err := a.inventory.Create(ctx, in); err != nil {
			zap.L().Error("failed to create sample sweet", zap.String("name", in.Name), zap.Error(err))
			return created, err
		}
		created++
	}
	zap.L().Info("initialized sample sweets", zap.Int("count", created))
	return created, nil
}
