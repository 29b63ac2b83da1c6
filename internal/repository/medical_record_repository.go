package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/iliyamo/hospital-portal/internal/model"
)

// MedicalRecordRepo appends prediction snapshots and lists them back.
type MedicalRecordRepo struct{ DB *gorm.DB }

func NewMedicalRecordRepo(db *gorm.DB) *MedicalRecordRepo { return &MedicalRecordRepo{DB: db} }

// Create appends rec.
func (r *MedicalRecordRepo) Create(ctx context.Context, rec *model.MedicalRecord) error {
	return r.DB.WithContext(ctx).Create(rec).Error
}

// List returns up to limit records, newest first.  A non-positive limit
// means 100.
func (r *MedicalRecordRepo) List(ctx context.Context, limit int) ([]model.MedicalRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var recs []model.MedicalRecord
	err := r.DB.WithContext(ctx).Order("id DESC").Limit(limit).Find(&recs).Error
	return recs, err
}
