package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// LowStockThreshold is the stock level below which a product is flagged as scarce.
const LowStockThreshold = 10

type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Discount float64  `json:"discount,omitempty"` // percent off
	Sizes    []string `json:"sizes,omitempty"`
	Colors   []string `json:"colors,omitempty"`
	Category string   `json:"category,omitempty"`
	Rating   float64  `json:"rating,omitempty"`
	Reviews  int      `json:"reviews,omitempty"`
	Stock    *int     `json:"stock,omitempty"`
}

func (p Product) FinalPrice() float64 {
	if p.Discount <= 0 {
		return p.Price
	}
	return p.Price * (1 - p.Discount/100)
}

// LowStock reports whether stock is known and under the threshold.
func (p Product) LowStock() bool {
	return p.Stock != nil && *p.Stock < LowStockThreshold
}

// Load reads a JSON array of products.
func Load(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return products, nil
}
