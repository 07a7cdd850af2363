// Package seed loads gzipped NDJSON catalogue and account fixtures and
// inserts them into the database.
package seed

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// Seed file names, relative to the seed directory or S3 prefix.
const (
	CategoriesFile = "categories.ndjson.gz"
	ProductsFile   = "products.ndjson.gz"
	UsersFile      = "users.ndjson.gz"
	AdminsFile     = "admins.ndjson.gz"
)

// Loader reads one seed file and returns its records undecoded.
type Loader interface {
	Load(ctx context.Context, path string) ([]json.RawMessage, error)
}

// Category is a category seed record. Parents must appear before their
// children in the file.
type Category struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"required,max=100"`
	Description string `json:"description"`
	ParentSlug  string `json:"parentSlug"`
}

// Product is a product seed record.
type Product struct {
	CategorySlug string          `json:"categorySlug"`
	Name         string          `json:"name" validate:"required,max=255"`
	Slug         string          `json:"slug" validate:"required,max=255"`
	SKU          string          `json:"sku" validate:"required,max=100"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock" validate:"gte=0"`
	ImageURL     string          `json:"imageUrl"`
	Inactive     bool            `json:"inactive"`
}

// User is a customer seed record carrying a plaintext password.
type User struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Admin is an administrator seed record carrying a plaintext password.
type Admin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin super_admin"`
}

// readRecords decompresses r and returns one record per non-blank line.
func readRecords(ctx context.Context, r io.Reader) ([]json.RawMessage, error) {
	// Create gzip reader
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	// Read line by line, allowing records up to 1MB
	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var records []json.RawMessage
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		// A broken line fails the whole file
		if !json.Valid(line) {
			return nil, fmt.Errorf("line %d is not valid JSON", lineNo)
		}
		records = append(records, json.RawMessage(append([]byte(nil), line...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}
