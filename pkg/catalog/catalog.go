// Package catalog is the read-mostly book catalog: the books table and the
// service that lists and looks up books for the storefront.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Baryonic/aida/pkg/apperr"
	"github.com/Baryonic/aida/pkg/database"
	"github.com/Baryonic/aida/pkg/models"
	"github.com/Baryonic/aida/pkg/validation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const msgBookNotFound = "Book not found"

// ErrNothingToUpdate is returned by Update when no mutable field was
// supplied. It is deliberately not a not-found error.
var ErrNothingToUpdate = errors.New("no updatable fields supplied")

// NewBook is the input for Create.
type NewBook struct {
	Title           string          `json:"title" validate:"required"`
	Slug            string          `json:"slug" validate:"required,slug"`
	Author          string          `json:"author"`
	Description     string          `json:"description"`
	LongDescription string          `json:"long_description"`
	Price           decimal.Decimal `json:"price"`
	CoverImage      *string         `json:"cover_image"`
	AgeRange        string          `json:"age_range"`
	Pages           *int            `json:"pages" validate:"omitempty,gt=0"`
	ISBN            *string         `json:"isbn"`
	Featured        bool            `json:"featured"`
}

// Changes lists the mutable book fields. Nil fields are left untouched;
// anything else a caller sends has no field here and is ignored.
type Changes struct {
	Title           *string          `json:"title"`
	Slug            *string          `json:"slug" validate:"omitempty,slug"`
	Author          *string          `json:"author"`
	Description     *string          `json:"description"`
	LongDescription *string          `json:"long_description"`
	Price           *decimal.Decimal `json:"price"`
	CoverImage      *string          `json:"cover_image"`
	AgeRange        *string          `json:"age_range"`
	Pages           *int             `json:"pages" validate:"omitempty,gt=0"`
	ISBN            *string          `json:"isbn"`
	Featured        *bool            `json:"featured"`
}

func (c Changes) columns() map[string]any {
	cols := make(map[string]any)
	if c.Title != nil {
		cols["title"] = strings.TrimSpace(*c.Title)
	}
	if c.Slug != nil {
		cols["slug"] = *c.Slug
	}
	if c.Author != nil {
		cols["author"] = *c.Author
	}
	if c.Description != nil {
		cols["description"] = *c.Description
	}
	if c.LongDescription != nil {
		cols["long_description"] = *c.LongDescription
	}
	if c.Price != nil {
		cols["price"] = *c.Price
	}
	if c.CoverImage != nil {
		cols["cover_image"] = *c.CoverImage
	}
	if c.AgeRange != nil {
		cols["age_range"] = *c.AgeRange
	}
	if c.Pages != nil {
		cols["pages"] = *c.Pages
	}
	if c.ISBN != nil {
		cols["isbn"] = *c.ISBN
	}
	if c.Featured != nil {
		cols["featured"] = *c.Featured
	}
	return cols
}

type Service struct {
	db       *gorm.DB
	validate *validation.Validator
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, validate: validation.New()}
}

// ListAll returns every book, newest first.
func (s *Service) ListAll(ctx context.Context) ([]models.Book, error) {
	books := []models.Book{}
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&books).Error
	return books, database.Classify(err, msgBookNotFound)
}

// ListFeatured returns featured books, newest first.
func (s *Service) ListFeatured(ctx context.Context) ([]models.Book, error) {
	books := []models.Book{}
	err := s.db.WithContext(ctx).
		Where("featured = ?", true).
		Order("created_at DESC, id DESC").
		Find(&books).Error
	return books, database.Classify(err, msgBookNotFound)
}

func (s *Service) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, id).Error; err != nil {
		return nil, database.Classify(err, msgBookNotFound)
	}
	return &book, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&book).Error; err != nil {
		return nil, database.Classify(err, msgBookNotFound)
	}
	return &book, nil
}

func (s *Service) Create(ctx context.Context, in NewBook) (*models.Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Price.IsNegative() {
		return nil, apperr.Validation("price must not be negative")
	}
	if err := s.ensureSlugFree(ctx, in.Slug, 0); err != nil {
		return nil, err
	}

	book := models.Book{
		Title:           in.Title,
		Slug:            in.Slug,
		Author:          in.Author,
		Description:     in.Description,
		LongDescription: in.LongDescription,
		Price:           in.Price,
		CoverImage:      in.CoverImage,
		AgeRange:        in.AgeRange,
		Pages:           in.Pages,
		ISBN:            in.ISBN,
		Featured:        in.Featured,
	}
	if book.Author == "" {
		book.Author = "Aida"
	}
	if err := s.db.WithContext(ctx).Create(&book).Error; err != nil {
		return nil, database.Classify(err, msgBookNotFound)
	}
	return &book, nil
}

// Update applies the non-nil fields of ch to book id and refreshes
// updated_at. It returns ErrNothingToUpdate when ch is empty.
func (s *Service) Update(ctx context.Context, id uint, ch Changes) (*models.Book, error) {
	cols := ch.columns()
	if len(cols) == 0 {
		return nil, ErrNothingToUpdate
	}
	if title, ok := cols["title"].(string); ok && title == "" {
		return nil, apperr.Validation("title must not be empty")
	}
	if err := s.validate.Struct(ch); err != nil {
		return nil, err
	}
	if ch.Price != nil && ch.Price.IsNegative() {
		return nil, apperr.Validation("price must not be negative")
	}
	if ch.Slug != nil {
		if err := s.ensureSlugFree(ctx, *ch.Slug, id); err != nil {
			return nil, err
		}
	}
	cols["updated_at"] = time.Now()

	res := s.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, database.Classify(res.Error, msgBookNotFound)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound(msgBookNotFound)
	}
	return s.GetByID(ctx, id)
}

// Delete removes book id; its cart rows are removed by the foreign key.
func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Book{}, id)
	if res.Error != nil {
		return database.Classify(res.Error, msgBookNotFound)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(msgBookNotFound)
	}
	return nil
}

func (s *Service) ensureSlugFree(ctx context.Context, slug string, except uint) error {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Book{}).
		Where("slug = ? AND id <> ?", slug, except).
		Count(&n).Error
	if err != nil {
		return database.Classify(err, msgBookNotFound)
	}
	if n > 0 {
		return apperr.Conflict("slug already in use")
	}
	return nil
}
