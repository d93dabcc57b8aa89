// Package cart is the server-side cart: rows keyed by an opaque session
// string, joined with the catalog for display fields and live prices.
package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Baryonic/aida/pkg/apperr"
	"github.com/Baryonic/aida/pkg/database"
	"github.com/Baryonic/aida/pkg/models"
	"github.com/Baryonic/aida/pkg/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	msgBookNotFound    = "Book not found"
	msgSessionRequired = "session is required"
	msgQuantityTooLow  = "quantity must be at least 1"

	// CheckoutMessage is returned by the checkout placeholder.
	CheckoutMessage = "Checkout functionality coming soon. Payment gateway not yet integrated."
)

// Item is a cart row with the book fields it is displayed with.
type Item struct {
	ID         uint            `json:"id"`
	SessionID  string          `json:"session_id"`
	BookID     uint            `json:"book_id"`
	Quantity   int             `json:"quantity"`
	CreatedAt  time.Time       `json:"created_at"`
	Title      string          `json:"title"`
	Price      decimal.Decimal `json:"price"`
	CoverImage *string         `json:"cover_image"`
	Slug       string          `json:"slug"`
}

// View is what every cart operation answers with.
type View struct {
	Items []Item          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func newView(items []Item) *View {
	lines := make([]money.Line, len(items))
	for i, it := range items {
		lines[i] = money.Line{Price: it.Price, Quantity: it.Quantity}
	}
	return &View{Items: items, Total: money.Total(lines)}
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Get(ctx context.Context, session string) (*View, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	return s.view(ctx, s.db, session)
}

// Add puts quantity copies of book into the session's cart, incrementing
// the existing row when there is one. quantity 0 means 1. The resulting
// line may not exceed models.MaxCartQuantity.
func (s *Service) Add(ctx context.Context, session string, bookID uint, quantity int) (*View, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if quantity == 0 {
		quantity = 1
	}
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}

	var view *View
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Book{}).Where("id = ?", bookID).Count(&n).Error; err != nil {
			return database.Classify(err, msgBookNotFound)
		}
		if n == 0 {
			return apperr.NotFound(msgBookNotFound)
		}

		var existing int64
		err := tx.Model(&models.CartItem{}).
			Where("session_id = ? AND book_id = ?", session, bookID).
			Select("COALESCE(SUM(quantity), 0)").
			Scan(&existing).Error
		if err != nil {
			return database.Classify(err, msgBookNotFound)
		}
		if existing+int64(quantity) > models.MaxCartQuantity {
			return tooMany()
		}

		item := models.CartItem{SessionID: session, BookID: bookID, Quantity: quantity}
		err = tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "book_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
			}),
		}).Create(&item).Error
		if err != nil {
			return database.Classify(err, msgBookNotFound)
		}

		view, err = s.view(ctx, tx, session)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// SetQuantity sets the quantity of cart row id. Only rows belonging to
// session are touched; an id from another session changes nothing.
func (s *Service) SetQuantity(ctx context.Context, id uint, session string, quantity int) (*View, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("id = ? AND session_id = ?", id, session).
		Update("quantity", quantity).Error
	if err != nil {
		return nil, database.Classify(err, msgBookNotFound)
	}
	return s.view(ctx, s.db, session)
}

// Remove deletes cart row id, scoped to session like SetQuantity.
func (s *Service) Remove(ctx context.Context, id uint, session string) (*View, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).
		Where("id = ? AND session_id = ?", id, session).
		Delete(&models.CartItem{}).Error
	if err != nil {
		return nil, database.Classify(err, msgBookNotFound)
	}
	return s.view(ctx, s.db, session)
}

func (s *Service) Clear(ctx context.Context, session string) (*View, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Where("session_id = ?", session).Delete(&models.CartItem{}).Error
	if err != nil {
		return nil, database.Classify(err, msgBookNotFound)
	}
	return newView([]Item{}), nil
}

// Checkout is a placeholder until a payment gateway exists. It changes
// nothing and always succeeds.
func (s *Service) Checkout(ctx context.Context) string {
	return CheckoutMessage
}

func (s *Service) view(ctx context.Context, db *gorm.DB, session string) (*View, error) {
	items := []Item{}
	err := db.WithContext(ctx).
		Table("cart_items AS ci").
		Select("ci.id, ci.session_id, ci.book_id, ci.quantity, ci.created_at, b.title, b.price, b.cover_image, b.slug").
		Joins("JOIN books b ON b.id = ci.book_id").
		Where("ci.session_id = ?", session).
		Order("ci.created_at ASC, ci.id ASC").
		Scan(&items).Error
	if err != nil {
		return nil, database.Classify(err, msgBookNotFound)
	}
	return newView(items), nil
}

func requireSession(session string) error {
	if strings.TrimSpace(session) == "" {
		return apperr.Validation(msgSessionRequired)
	}
	return nil
}

func checkQuantity(quantity int) error {
	if quantity < 1 {
		return apperr.Validation(msgQuantityTooLow)
	}
	if quantity > models.MaxCartQuantity {
		return tooMany()
	}
	return nil
}

func tooMany() error {
	return apperr.Validation(fmt.Sprintf("quantity must be at most %d", models.MaxCartQuantity))
}
