package database

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"github.com/Baryonic/aida/pkg/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed_books.yaml
var defaultSeed []byte

type seedBook struct {
	Title           string  `yaml:"title"`
	Slug            string  `yaml:"slug"`
	Author          string  `yaml:"author"`
	Description     string  `yaml:"description"`
	LongDescription string  `yaml:"long_description"`
	Price           float64 `yaml:"price"`
	CoverImage      string  `yaml:"cover_image"`
	AgeRange        string  `yaml:"age_range"`
	Pages           int     `yaml:"pages"`
	ISBN            string  `yaml:"isbn"`
	Featured        bool    `yaml:"featured"`
}

// DefaultSeed returns the built-in sample catalog.
func DefaultSeed() ([]models.Book, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}

// LoadSeed decodes a YAML list of books.
func LoadSeed(r io.Reader) ([]models.Book, error) {
	var raw []seedBook
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	books := make([]models.Book, 0, len(raw))
	for i, sb := range raw {
		if sb.Title == "" || sb.Slug == "" {
			return nil, fmt.Errorf("seed entry %d: title and slug are required", i)
		}
		if sb.Price < 0 {
			return nil, fmt.Errorf("seed entry %d: price must not be negative", i)
		}
		books = append(books, models.Book{
			Title:           sb.Title,
			Slug:            sb.Slug,
			Author:          sb.Author,
			Description:     sb.Description,
			LongDescription: sb.LongDescription,
			Price:           decimal.NewFromFloat(sb.Price),
			CoverImage:      optional(sb.CoverImage),
			AgeRange:        sb.AgeRange,
			Pages:           optionalInt(sb.Pages),
			ISBN:            optional(sb.ISBN),
			Featured:        sb.Featured,
		})
	}
	return books, nil
}

// Seed replaces the whole catalog with books in one transaction. Cart rows
// that referenced the old books go with them.
func Seed(db *gorm.DB, books []models.Book) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Book{}).Error; err != nil {
			return fmt.Errorf("clear books: %w", err)
		}
		if len(books) == 0 {
			return nil
		}
		if err := tx.Create(&books).Error; err != nil {
			return fmt.Errorf("insert books: %w", err)
		}
		return nil
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
