// Package contact stores messages sent through the contact form.
package contact

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Baryonic/aida/pkg/apperr"
	"github.com/Baryonic/aida/pkg/database"
	"github.com/Baryonic/aida/pkg/models"

	"gorm.io/gorm"
)

const (
	msgNotFound = "Message not found"

	// ReceivedMessage is shown to the sender after a successful submit.
	ReceivedMessage = "Thank you! Your message has been received."
)

const notifyTimeout = 5 * time.Second

type Service struct {
	db       *gorm.DB
	notifier Notifier
	log      *slog.Logger

	pending sync.WaitGroup
}

// NewService returns a contact service. notifier may be nil.
func NewService(db *gorm.DB, notifier Notifier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, notifier: notifier, log: log}
}

// Submit stores one message. Its fields are expected to have been through
// Sanitize already; Submit only trims them and rejects empty values.
func (s *Service) Submit(ctx context.Context, name, email, message string) (*models.ContactMessage, error) {
	msg := models.ContactMessage{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Message: strings.TrimSpace(message),
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, apperr.Validation("All fields are required.")
	}

	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, database.Classify(err, msgNotFound)
	}

	s.notify(ctx, &msg)
	return &msg, nil
}

// notify publishes in the background; Submit never waits on the broker.
func (s *Service) notify(ctx context.Context, msg *models.ContactMessage) {
	if s.notifier == nil {
		return
	}
	ev := ReceivedEvent{
		ID:        msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		CreatedAt: msg.CreatedAt,
	}
	ctx = context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyReceived(ctx, ev); err != nil {
			s.log.Warn("contact notification failed", "id", ev.ID, "error", err)
		}
	}()
}

// Wait blocks until every notification started by Submit has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// ListAll returns every message, newest first.
func (s *Service) ListAll(ctx context.Context) ([]models.ContactMessage, error) {
	msgs := []models.ContactMessage{}
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&msgs).Error
	return msgs, database.Classify(err, msgNotFound)
}

func (s *Service) GetByID(ctx context.Context, id uint) (*models.ContactMessage, error) {
	var msg models.ContactMessage
	if err := s.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, database.Classify(err, msgNotFound)
	}
	return &msg, nil
}

func (s *Service) MarkRead(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.ContactMessage{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return database.Classify(res.Error, msgNotFound)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(msgNotFound)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.ContactMessage{}, id)
	if res.Error != nil {
		return database.Classify(res.Error, msgNotFound)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(msgNotFound)
	}
	return nil
}
