package service

import (
	"fmt"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"go.uber.org/zap"
)

// NotificationStore persists notify-owner acknowledgments
type NotificationStore interface {
	SaveNotification(n *models.Notification) error
}

// Notifier acknowledges "notify owner" actions. Nothing is delivered; the
// acknowledgment is only recorded.
type Notifier struct {
	store  NotificationStore
	logger *zap.Logger
}

// NewNotifier creates a notifier. store may be nil.
func NewNotifier(store NotificationStore, logger *zap.Logger) *Notifier {
	return &Notifier{
		store:  store,
		logger: logger,
	}
}

// NotificationMessage is the acknowledgment shown to the finder
func NotificationMessage(lost models.LostItemReport) string {
	return fmt.Sprintf("A notification has been sent to %s regarding their %q.", lost.Profile.FullName, lost.ItemName)
}

// Notify records that the owner of lost was told about foundItemID
func (n *Notifier) Notify(sessionID, foundItemID string, lost models.LostItemReport) (*models.Notification, error) {
	notification := &models.Notification{
		SessionID:    sessionID,
		FoundItemID:  foundItemID,
		LostItemID:   lost.ID,
		OwnerName:    lost.Profile.FullName,
		Message:      NotificationMessage(lost),
		Acknowledged: time.Now(),
	}

	if n.store != nil {
		if err := n.store.SaveNotification(notification); err != nil {
			return nil, fmt.Errorf("failed to record notification: %w", err)
		}
	}

	n.logger.Info("Owner notification acknowledged",
		zap.String("session_id", sessionID),
		zap.String("found_item_id", foundItemID),
		zap.String("lost_item_id", lost.ID))

	return notification, nil
}
