package database

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"linkdrop/internal/storage"
)

// Seed populates the catalog with sample links for development/testing.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&storage.Blob{}).Where("key = ?", storage.KeyLinks).Count(&count).Error; err != nil {
		return fmt.Errorf("count link blob: %w", err)
	}

	if count > 0 {
		fmt.Println("✓ Link catalog already exists")
		return nil
	}

	links := []string{
		"https://go.dev/blog",
		"https://pkg.go.dev",
		"https://go.dev/doc/effective_go",
	}

	raw, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("encode sample links: %w", err)
	}

	blob := &storage.Blob{Key: storage.KeyLinks, Value: string(raw)}
	if err := db.Create(blob).Error; err != nil {
		return fmt.Errorf("create link blob: %w", err)
	}

	fmt.Printf("✓ Seeded %d sample links\n", len(links))
	return nil
}
