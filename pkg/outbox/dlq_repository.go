package outbox

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harborline/storefront-backend/pkg/db/models"
)

const maxDLQReasonLen = 1024

type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

func (r *DLQRepository) Insert(entry models.OutboxDeadLetter) error {
	return r.InsertTx(r.db, entry)
}

// InsertTx parks an entry inside the caller's transaction so the
// original event row can be removed atomically.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDeadLetter) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.Reason = truncateDLQReason(entry.Reason)
	return tx.Create(&entry).Error
}

func (r *DLQRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDeadLetter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var entry models.OutboxDeadLetter
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *DLQRepository) List(ctx context.Context, limit int) ([]models.OutboxDeadLetter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 50
	}
	var rows []models.OutboxDeadLetter
	err := r.db.WithContext(ctx).
		Order("parked_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func truncateDLQReason(message string) string {
	if len(message) <= maxDLQReasonLen {
		return message
	}
	return message[:maxDLQReasonLen]
}
