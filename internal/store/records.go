package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"resumind/internal/errors"
	"resumind/internal/types"
)

// RecordStore persists reviews and looks them up by id
type RecordStore interface {
	Save(ctx context.Context, rec *types.ResumeRecord) error
	Get(ctx context.Context, id string) (*types.ResumeRecord, error)
	List(ctx context.Context) ([]*types.ResumeRecord, error)
	Delete(ctx context.Context, id string) error
}

// resumeRecordModel is the database row for one review. Feedback and
// the image path list are stored as JSON columns.
type resumeRecordModel struct {
	ID             string         `gorm:"primaryKey;type:uuid"`
	CompanyName    string         `gorm:"type:text"`
	JobTitle       string         `gorm:"type:text"`
	JobDescription string         `gorm:"type:text"`
	ResumePath     string         `gorm:"type:text;not null"`
	ImagePaths     datatypes.JSON `gorm:"type:jsonb"`
	Feedback       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time
}

func (resumeRecordModel) TableName() string {
	return "resume_records"
}

// GormStore is a PostgreSQL-backed RecordStore
type GormStore struct {
	db *gorm.DB
}

// NewGormStore connects to the database and migrates the schema
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeInvalidConfig,
			"failed to connect to database", err)
	}

	if err := db.AutoMigrate(&resumeRecordModel{}); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeInvalidConfig,
			"failed to migrate record schema", err)
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) Save(ctx context.Context, rec *types.ResumeRecord) error {
	model, err := toModel(rec)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
		return errors.NewIOError(errors.ErrCodeInvalidRequest,
			"failed to save resume record", err).
			WithContext("record_id", rec.ID)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*types.ResumeRecord, error) {
	var model resumeRecordModel
	err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound(id)
		}
		return nil, errors.NewIOError(errors.ErrCodeInvalidRequest,
			"failed to load resume record", err).
			WithContext("record_id", id)
	}
	return fromModel(&model)
}

func (s *GormStore) List(ctx context.Context) ([]*types.ResumeRecord, error) {
	var models []resumeRecordModel
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&models).Error; err != nil {
		return nil, errors.NewIOError(errors.ErrCodeInvalidRequest,
			"failed to list resume records", err)
	}

	records := make([]*types.ResumeRecord, 0, len(models))
	for i := range models {
		rec, err := fromModel(&models[i])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&resumeRecordModel{}, "id = ?", id)
	if result.Error != nil {
		return errors.NewIOError(errors.ErrCodeInvalidRequest,
			"failed to delete resume record", result.Error).
			WithContext("record_id", id)
	}
	if result.RowsAffected == 0 {
		return NotFound(id)
	}
	return nil
}

// NotFound builds the typed error for a missing record id
func NotFound(id string) error {
	return errors.NewNotFoundError(errors.ErrCodeRecordNotFound,
		fmt.Sprintf("resume record %s not found", id), nil).
		WithContext("record_id", id)
}

func toModel(rec *types.ResumeRecord) (*resumeRecordModel, error) {
	feedbackJSON, err := json.Marshal(rec.Feedback)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"failed to encode feedback", err)
	}
	pathsJSON, err := json.Marshal(rec.ImagePaths)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest,
			"failed to encode image paths", err)
	}

	return &resumeRecordModel{
		ID:             rec.ID,
		CompanyName:    rec.CompanyName,
		JobTitle:       rec.JobTitle,
		JobDescription: rec.JobDescription,
		ResumePath:     rec.ResumePath,
		ImagePaths:     datatypes.JSON(pathsJSON),
		Feedback:       datatypes.JSON(feedbackJSON),
		CreatedAt:      rec.CreatedAt,
	}, nil
}

func fromModel(model *resumeRecordModel) (*types.ResumeRecord, error) {
	rec := &types.ResumeRecord{
		ID:             model.ID,
		CompanyName:    model.CompanyName,
		JobTitle:       model.JobTitle,
		JobDescription: model.JobDescription,
		ResumePath:     model.ResumePath,
		CreatedAt:      model.CreatedAt,
	}

	if len(model.ImagePaths) > 0 {
		if err := json.Unmarshal(model.ImagePaths, &rec.ImagePaths); err != nil {
			return nil, errors.NewParseError(errors.ErrCodeInvalidFormat,
				"failed to decode image paths", err).
				WithContext("record_id", model.ID)
		}
	}
	if len(model.Feedback) > 0 {
		if err := json.Unmarshal(model.Feedback, &rec.Feedback); err != nil {
			return nil, errors.NewParseError(errors.ErrCodeInvalidFormat,
				"failed to decode stored feedback", err).
				WithContext("record_id", model.ID)
		}
	}
	return rec, nil
}
