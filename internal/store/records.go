package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dkeye/voicewatch/internal/domain"
)

// Records returns the four scopes in domain.RecordScopes order.
func (s *Store) Records(ctx context.Context) ([]domain.Record, error) {
	var rows []recordRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("store: records: %w", err)
	}

	byScope := make(map[domain.RecordScope]domain.Record, len(rows))
	for _, r := range rows {
		if rec, ok := r.toDomain(); ok {
			byScope[rec.Scope] = rec
		}
	}
	out := make([]domain.Record, 0, len(domain.RecordScopes))
	for _, scope := range domain.RecordScopes {
		rec, ok := byScope[scope]
		if !ok {
			rec = domain.Record{Scope: scope}
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) Record(ctx context.Context, scope domain.RecordScope) (domain.Record, error) {
	key := scope.Key()
	if key == "" {
		return domain.Record{}, domain.ErrUnknownScope
	}
	var row recordRow
	err := s.db.WithContext(ctx).Where("scope = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Record{Scope: scope}, nil
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("store: record %s: %w", scope, err)
	}
	rec, _ := row.toDomain()
	return rec, nil
}

// PutRecord overwrites holder, duration and date of rec.Scope.
func (s *Store) PutRecord(ctx context.Context, rec domain.Record) error {
	return s.updateRecord(ctx, rec.Scope, map[string]any{
		"member_name": rec.Holder,
		"duration":    rec.Duration.Seconds(),
		"date":        rec.Date,
		"updated_at":  time.Now(),
	})
}

func (s *Store) ResetRecord(ctx context.Context, scope domain.RecordScope) error {
	return s.updateRecord(ctx, scope, map[string]any{
		"member_name": nil,
		"duration":    0,
		"date":        nil,
		"updated_at":  time.Now(),
	})
}

func (s *Store) updateRecord(ctx context.Context, scope domain.RecordScope, values map[string]any) error {
	key := scope.Key()
	if key == "" {
		return domain.ErrUnknownScope
	}
	res := s.db.WithContext(ctx).Model(&recordRow{}).Where("scope = ?", key).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("store: update record %s: %w", scope, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store: update record %s: %w", scope, gorm.ErrRecordNotFound)
	}
	return nil
}
