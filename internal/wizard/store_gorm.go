package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xelth-com/wooassist/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps wizard records in the wizard_sessions table
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration // zero keeps rows until the wizard ends
	now func() time.Time
}

func NewGormStore(db *gorm.DB, ttl time.Duration) *GormStore {
	return &GormStore{db: db, ttl: ttl, now: time.Now}
}

func (s *GormStore) Get(ctx context.Context, key string) (*Record, error) {
	var row models.WizardSession
	err := s.db.WithContext(ctx).Where("session_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard session: %w", err)
	}

	if row.ExpiresAt != nil && row.ExpiresAt.Before(s.now()) {
		if err := s.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return decodeRecord(row.Payload)
}

func (s *GormStore) Put(ctx context.Context, key string, rec *Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	row := models.WizardSession{
		SessionKey: key,
		Kind:       string(rec.Kind),
		Payload:    data,
	}
	if s.ttl > 0 {
		exp := s.now().Add(s.ttl)
		row.ExpiresAt = &exp
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "payload", "expires_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save wizard session: %w", err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("session_key = ?", key).Delete(&models.WizardSession{}).Error
	if err != nil {
		return fmt.Errorf("delete wizard session: %w", err)
	}
	return nil
}
