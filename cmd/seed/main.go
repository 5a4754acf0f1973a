package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fixgearlabs/fixgear-cart/config"
	"github.com/fixgearlabs/fixgear-cart/internal/app/model"
	"github.com/fixgearlabs/fixgear-cart/internal/app/repository"
	"github.com/fixgearlabs/fixgear-cart/internal/db"
)

// Imports the product catalog from an XLSX export.
// Expected columns: name, description, price, stock, image_url, category, brand, featured.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	productRepo := repository.NewProductRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, err := readProductsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total products to import: %d\n", len(products))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	batchSize := 500
	fmt.Printf("Starting bulk import with batch size: %d\n", batchSize)
	if err := productRepo.BulkCreate(products, batchSize); err != nil {
		log.Fatal("Failed to bulk create products:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", len(products))
}

func readProductsFromXLSX(filePath string) ([]model.Product, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var products []model.Product
	seen := make(map[string]bool)
	skippedCount := 0

	for i, row := range rows {
		// Header row
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}

		if len(row) < 4 {
			skippedCount++
			continue
		}

		name := strings.TrimSpace(row[0])
		description := strings.TrimSpace(row[1])
		priceStr := strings.TrimSpace(row[2])
		stockStr := strings.TrimSpace(row[3])

		var imageURL, category, brand, featuredStr string
		if len(row) > 4 {
			imageURL = strings.TrimSpace(row[4])
		}
		if len(row) > 5 {
			category = strings.TrimSpace(row[5])
		}
		if len(row) > 6 {
			brand = strings.TrimSpace(row[6])
		}
		if len(row) > 7 {
			featuredStr = strings.TrimSpace(row[7])
		}

		if name == "" || priceStr == "" {
			skippedCount++
			continue
		}

		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			skippedCount++
			continue
		}

		stock, err := strconv.Atoi(stockStr)
		if err != nil || stock < 0 {
			stock = 0
		}

		// Duplicate check on name+brand
		key := fmt.Sprintf("%s|%s", name, brand)
		if seen[key] {
			skippedCount++
			continue
		}
		seen[key] = true

		featured := featuredStr == "1" ||
			strings.EqualFold(featuredStr, "true") ||
			strings.EqualFold(featuredStr, "yes")

		products = append(products, model.Product{
			Name:        name,
			Description: description,
			Price:       price,
			Stock:       stock,
			ImageURL:    imageURL,
			Category:    category,
			Brand:       brand,
			Featured:    featured,
		})
	}

	fmt.Printf("Parsed %d products (skipped %d rows)\n", len(products), skippedCount)
	return products, nil
}
