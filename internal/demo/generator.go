// Package demo generates deterministic sample sales data for the demo
// CLI and the benchmark seed.
package demo

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"
)

type Sale struct {
	TransactionID int64   `parquet:"transaction_id"`
	SaleDate      string  `parquet:"sale_date"`
	Category      string  `parquet:"category"`
	Product       string  `parquet:"product"`
	Quantity      int64   `parquet:"quantity"`
	Price         float64 `parquet:"price"`
}

var catalog = map[string][]string{
	"Electronics": {"Laptop", "Smartphone", "Headphones", "Monitor", "Tablet"},
	"Furniture":   {"Desk", "Chair", "Bookshelf", "Sofa"},
	"Appliances":  {"Blender", "Toaster", "Kettle", "Microwave"},
}

var priceRanges = map[string][2]float64{
	"Electronics": {150, 1500},
	"Furniture":   {80, 600},
	"Appliances":  {25, 250},
}

var categories = []string{"Electronics", "Furniture", "Appliances"}

type Generator struct {
	rnd      *rand.Rand
	sequence int64
	baseDate time.Time
}

func NewGenerator(seed int64) *Generator {
	return &Generator{
		rnd:      rand.New(rand.NewSource(seed)),
		baseDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (g *Generator) NextSale() Sale {
	g.sequence++
	category := categories[g.rnd.Intn(len(categories))]
	products := catalog[category]
	bounds := priceRanges[category]
	price := bounds[0] + g.rnd.Float64()*(bounds[1]-bounds[0])

	return Sale{
		TransactionID: g.sequence,
		SaleDate:      g.baseDate.AddDate(0, 0, g.rnd.Intn(365)).Format("2006-01-02"),
		Category:      category,
		Product:       products[g.rnd.Intn(len(products))],
		Quantity:      int64(g.rnd.Intn(8) + 1),
		Price:         math.Round(price*100) / 100,
	}
}

func (g *Generator) Sales(count int) []Sale {
	sales := make([]Sale, 0, count)
	for i := 0; i < count; i++ {
		sales = append(sales, g.NextSale())
	}
	return sales
}

// WriteCSV writes sales as a CSV fixture. Reading CSV stays with the
// engine; this writer only exists to produce demo inputs.
func WriteCSV(path string, sales []Sale) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv fixture: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"transaction_id", "sale_date", "category", "product", "quantity", "price"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, sale := range sales {
		record := []string{
			fmt.Sprintf("%d", sale.TransactionID),
			sale.SaleDate,
			sale.Category,
			sale.Product,
			fmt.Sprintf("%d", sale.Quantity),
			fmt.Sprintf("%.2f", sale.Price),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv fixture: %w", err)
	}
	return nil
}
