package app

import "github.com/talkincode/sweetshop/internal/inventory"

func inventoryInput(name string, quantity int) inventory.CreateInput {
	return inventory.CreateInput{Name: name, Category: "chocolate", Price: "2.50", Quantity: quantity}
}
