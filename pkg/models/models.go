package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Book struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Title           string          `gorm:"not null" json:"title"`
	Slug            string          `gorm:"size:200;not null;uniqueIndex" json:"slug"`
	Author          string          `gorm:"not null;default:'Aida'" json:"author"`
	Description     string          `json:"description"`
	LongDescription string          `json:"long_description"`
	Price           decimal.Decimal `gorm:"type:numeric(10,2);not null;check:price >= 0" json:"price"`
	CoverImage      *string         `json:"cover_image"`
	AgeRange        string          `json:"age_range"`
	Pages           *int            `json:"pages"`
	ISBN            *string         `gorm:"column:isbn" json:"isbn"`
	Featured        bool            `gorm:"not null;default:false;index" json:"featured"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MaxCartQuantity caps the quantity of a single cart line.
const MaxCartQuantity = 999

// CartItem rows are unique per (SessionID, BookID) and disappear with
// their book.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:255;not null;uniqueIndex:idx_cart_session_book,priority:1" json:"session_id"`
	BookID    uint      `gorm:"not null;uniqueIndex:idx_cart_session_book,priority:2" json:"book_id"`
	Quantity  int       `gorm:"not null;default:1;check:quantity >= 1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`

	Book Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
}

type ContactMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:1200;not null" json:"name"`
	Email     string    `gorm:"size:320;not null" json:"email"`
	Message   string    `gorm:"not null" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{&Book{}, &CartItem{}, &ContactMessage{}}
}
