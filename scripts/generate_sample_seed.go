package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"storefront/internal/seed"

	"github.com/shopspring/decimal"
)

// generateSampleSeed writes a small catalogue and a pair of accounts to
// data/seed for local development. Load it with `storefront-cli seed`.
func main() {
	dataDir := "data/seed"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	categories := []seed.Category{
		{Name: "Furniture", Slug: "furniture", Description: "Tables, chairs and storage"},
		{Name: "Desks", Slug: "desks", ParentSlug: "furniture"},
		{Name: "Chairs", Slug: "chairs", ParentSlug: "furniture"},
		{Name: "Lighting", Slug: "lighting"},
	}

	products := []seed.Product{
		{CategorySlug: "desks", Name: "Walnut Desk", Slug: "walnut-desk", SKU: "DESK-001", Price: decimal.RequireFromString("249.00"), Stock: 12},
		{CategorySlug: "desks", Name: "Standing Desk", Slug: "standing-desk", SKU: "DESK-002", Price: decimal.RequireFromString("499.00"), Stock: 5},
		{CategorySlug: "chairs", Name: "Task Chair", Slug: "task-chair", SKU: "CHAIR-001", Price: decimal.RequireFromString("129.50"), Stock: 30},
		{CategorySlug: "chairs", Name: "Stool", Slug: "stool", SKU: "CHAIR-002", Price: decimal.RequireFromString("10.00"), Stock: 40},
		{CategorySlug: "lighting", Name: "Desk Lamp", Slug: "desk-lamp", SKU: "LAMP-001", Price: decimal.RequireFromString("15.00"), Stock: 25},
		{CategorySlug: "lighting", Name: "Floor Lamp", Slug: "floor-lamp", SKU: "LAMP-002", Price: decimal.RequireFromString("89.99"), Stock: 0, Inactive: true},
	}

	users := []seed.User{
		{Email: "ada@example.com", Password: "correct horse battery", FirstName: "Ada", LastName: "Lovelace", City: "London", Country: "GB"},
		{Email: "grace@example.com", Password: "correct horse battery", FirstName: "Grace", LastName: "Hopper", City: "Arlington", Country: "US"},
	}

	admins := []seed.Admin{
		{Email: "ops@example.com", Password: "change-me-now", Name: "Operations", Role: "super_admin"},
	}

	files := map[string]any{
		seed.CategoriesFile: categories,
		seed.ProductsFile:   products,
		seed.UsersFile:      users,
		seed.AdminsFile:     admins,
	}

	for filename, records := range files {
		filePath := filepath.Join(dataDir, filename)

		n, err := createSeedFile(filePath, records)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d records\n", filePath, n)
	}

	fmt.Println("\nSample seed files created successfully!")
	fmt.Println("Customer password for both users: correct horse battery")
	fmt.Println("Admin login: ops@example.com / change-me-now")
}

func createSeedFile(filePath string, records any) (int, error) {
	raw, err := json.Marshal(records)
	if err != nil {
		return 0, fmt.Errorf("failed to encode records: %w", err)
	}
	var lines []json.RawMessage
	if err := json.Unmarshal(raw, &lines); err != nil {
		return 0, fmt.Errorf("failed to split records: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintf(gzipWriter, "%s\n", line); err != nil {
			return 0, fmt.Errorf("failed to write record: %w", err)
		}
	}

	return len(lines), nil
}
