package contact

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/Baryonic/aida/pkg/apperr"
	"github.com/Baryonic/aida/pkg/database"
	"github.com/Baryonic/aida/pkg/logger"
	"github.com/Baryonic/aida/pkg/models"
	"github.com/Baryonic/aida/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []ReceivedEvent
	err    error
}

func (n *recordingNotifier) NotifyReceived(_ context.Context, ev ReceivedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", logger.Discard())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func countMessages(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.ContactMessage{}).Count(&n).Error)
	return n
}

func TestSubmitRejectsEmptyFields(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil, logger.Discard())
	ctx := context.Background()

	tests := []struct {
		name, email, message string
	}{
		{"", "ann@example.com", "Hi"},
		{"Ann", "  ", "Hi"},
		{"Ann", "ann@example.com", "\n\t"},
	}
	for _, tt := range tests {
		_, err := svc.Submit(ctx, tt.name, tt.email, tt.message)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	assert.Zero(t, countMessages(t, db))
}

func TestSubmitStoresSanitizedMessage(t *testing.T) {
	db := setupTestDB(t)
	notifier := &recordingNotifier{}
	svc := NewService(db, notifier, logger.Discard())

	form, err := Sanitize(validation.New(), Form{Name: "Ann", Email: "ann@example.com", Message: "Hi <3"})
	require.NoError(t, err)

	msg, err := svc.Submit(context.Background(), form.Name, form.Email, form.Message)
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.False(t, msg.Read)

	assert.Equal(t, int64(1), countMessages(t, db))

	var stored models.ContactMessage
	require.NoError(t, db.First(&stored, msg.ID).Error)
	assert.Equal(t, "Ann", stored.Name)
	assert.Equal(t, "ann@example.com", stored.Email)
	assert.Equal(t, "Hi &lt;3", stored.Message)

	svc.Wait()
	require.Len(t, notifier.events, 1)
	assert.Equal(t, msg.ID, notifier.events[0].ID)
	assert.Equal(t, "ann@example.com", notifier.events[0].Email)
}

func TestSubmitIgnoresNotifierFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, &recordingNotifier{err: errors.New("broker down")}, logger.Discard())

	_, err := svc.Submit(context.Background(), "Ann", "ann@example.com", "Hi")
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, int64(1), countMessages(t, db))
}

type blockingNotifier struct {
	release chan struct{}
	done    chan struct{}
}

func (n *blockingNotifier) NotifyReceived(ctx context.Context, _ ReceivedEvent) error {
	defer close(n.done)
	select {
	case <-n.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSubmitDoesNotWaitForNotifier(t *testing.T) {
	db := setupTestDB(t)
	notifier := &blockingNotifier{release: make(chan struct{}), done: make(chan struct{})}
	svc := NewService(db, notifier, logger.Discard())

	start := time.Now()
	msg, err := svc.Submit(context.Background(), "Ann", "ann@example.com", "Hi")
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.Less(t, time.Since(start), time.Second)

	close(notifier.release)
	svc.Wait()
	<-notifier.done
}

// silentListener accepts TCP connections and never answers.
func silentListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})
	return ln.Addr().String()
}

func TestAMQPNotifierHonoursContextDuringHandshake(t *testing.T) {
	n := NewAMQPNotifier("amqp://guest:guest@"+silentListener(t)+"/", "")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := n.NotifyReceived(ctx, ReceivedEvent{ID: 1})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSubmitWithUnresponsiveBroker(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, NewAMQPNotifier("amqp://guest:guest@"+silentListener(t)+"/", ""), logger.Discard())

	start := time.Now()
	_, err := svc.Submit(context.Background(), "Ann", "ann@example.com", "Hi")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int64(1), countMessages(t, db))

	svc.Wait()
	assert.Less(t, time.Since(start), notifyTimeout+2*time.Second)
}

func TestListAllNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil, logger.Discard())
	ctx := context.Background()

	first, err := svc.Submit(ctx, "Ann", "ann@example.com", "one")
	require.NoError(t, err)
	second, err := svc.Submit(ctx, "Bob", "bob@example.com", "two")
	require.NoError(t, err)

	msgs, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, second.ID, msgs[0].ID)
	assert.Equal(t, first.ID, msgs[1].ID)
}

func TestMarkReadAndDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil, logger.Discard())
	ctx := context.Background()

	msg, err := svc.Submit(ctx, "Ann", "ann@example.com", "Hi")
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, msg.ID))
	got, err := svc.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)

	require.NoError(t, svc.Delete(ctx, msg.ID))
	_, err = svc.GetByID(ctx, msg.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.ErrorIs(t, svc.MarkRead(ctx, msg.ID), apperr.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, msg.ID), apperr.ErrNotFound)
}
