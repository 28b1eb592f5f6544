package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ecovision-etl/internal/domain/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultInsertBatchSize = 200

// GormRecordStore implements RecordStore and RawRecordRepository on a SQL
// database through GORM
type GormRecordStore struct {
	db        *gorm.DB
	batchSize int
}

// NewGormRecordStore creates a new GORM record store
func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{
		db:        db,
		batchSize: defaultInsertBatchSize,
	}
}

// RawRecords GORM model for submitted sightings
type RawRecords struct {
	ID            uint                `gorm:"primaryKey"`
	SpeciesName   string              `gorm:"column:species_name;size:255"`
	Location      string              `gorm:"column:location;size:255"`
	Latitude      *string             `gorm:"column:latitude;size:64"`
	Longitude     *string             `gorm:"column:longitude;size:64"`
	SightingDate  entity.RawTimestamp `gorm:"column:sighting_date;type:varchar(64)"` // free text allowed
	ObserverName  string              `gorm:"column:observer_name;size:255"`
	ObserverEmail *string             `gorm:"column:observer_email;size:255"`
	Description   *string             `gorm:"column:description;type:text"`
	PhotoURL      *string             `gorm:"column:photo_url;type:text"`
	CreatedAt     time.Time
}

// TableName overrides the default table name
func (RawRecords) TableName() string {
	return "raw_records"
}

// CleanedRecords GORM model for accepted sightings, one row per raw record
type CleanedRecords struct {
	ID               uint      `gorm:"primaryKey"`
	RawID            uint      `gorm:"column:raw_id;uniqueIndex"`
	SpeciesName      string    `gorm:"column:species_name;size:255;not null"`
	SpeciesCategory  string    `gorm:"column:species_category;size:32;index"`
	Location         string    `gorm:"column:location;size:255;not null"`
	Latitude         float64   `gorm:"column:latitude"`
	Longitude        float64   `gorm:"column:longitude"`
	SightingDate     time.Time `gorm:"column:sighting_date;index"`
	ObserverName     string    `gorm:"column:observer_name;size:255;not null"`
	ObserverEmail    *string   `gorm:"column:observer_email;size:255"`
	Description      *string   `gorm:"column:description;type:text"`
	PhotoURL         *string   `gorm:"column:photo_url;type:text"`
	ValidationStatus string    `gorm:"column:validation_status;size:16"`
	DataQualityScore float64   `gorm:"column:data_quality_score"`
	ProcessedAt      time.Time `gorm:"column:processed_at"`
}

// TableName overrides the default table name
func (CleanedRecords) TableName() string {
	return "cleaned_records"
}

// PipelineLogs GORM model for run summaries
type PipelineLogs struct {
	ID                   uint      `gorm:"primaryKey"`
	RunID                string    `gorm:"column:run_id;size:36;uniqueIndex"`
	Status               string    `gorm:"column:status;size:16;index"`
	StartTime            time.Time `gorm:"column:start_time"`
	EndTime              time.Time `gorm:"column:end_time"`
	ExecutionTimeSeconds float64   `gorm:"column:execution_time_seconds"`
	RecordsExtracted     int       `gorm:"column:records_extracted"`
	RecordsTransformed   int       `gorm:"column:records_transformed"`
	RecordsLoaded        int       `gorm:"column:records_loaded"`
	RecordsRejected      int       `gorm:"column:records_rejected"`
	AverageQualityScore  float64   `gorm:"column:average_quality_score"`
	AcceptanceRate       float64   `gorm:"column:acceptance_rate"`
	Errors               string    `gorm:"column:errors;type:text"`   // JSON array
	Warnings             string    `gorm:"column:warnings;type:text"` // JSON array
	LogFile              string    `gorm:"column:log_file;size:512"`
	CreatedAt            time.Time
}

// TableName overrides the default table name
func (PipelineLogs) TableName() string {
	return "pipeline_logs"
}

// Migrate creates or updates the three tables
func (s *GormRecordStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&RawRecords{}, &CleanedRecords{}, &PipelineLogs{}); err != nil {
		return fmt.Errorf("failed to migrate record store: %w", err)
	}
	return nil
}

// ListRaw returns every raw record ordered by id
func (s *GormRecordStore) ListRaw(ctx context.Context) ([]*entity.RawRecord, error) {
	var rows []RawRecords
	if err := s.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list raw records: %w", err)
	}

	records := make([]*entity.RawRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toEntity())
	}
	return records, nil
}

// InsertRaw stores new submissions and writes the assigned ids back
func (s *GormRecordStore) InsertRaw(ctx context.Context, records []*entity.RawRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([]*RawRecords, 0, len(records))
	for _, r := range records {
		rows = append(rows, fromRawEntity(r))
	}

	result := s.db.WithContext(ctx).CreateInBatches(rows, s.batchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to insert raw records: %w", result.Error)
	}

	for i, row := range rows {
		records[i].ID = row.ID
		records[i].CreatedAt = row.CreatedAt
	}
	return int(result.RowsAffected), nil
}

// InsertCleaned commits the whole batch in one transaction. Rows whose raw id
// is already present are skipped and not counted.
func (s *GormRecordStore) InsertCleaned(ctx context.Context, records []*entity.CleanedRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([]*CleanedRecords, 0, len(records))
	for _, r := range records {
		rows = append(rows, fromCleanedEntity(r))
	}

	var inserted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(rows); start += s.batchSize {
			end := start + s.batchSize
			if end > len(rows) {
				end = len(rows)
			}
			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "raw_id"}},
				DoNothing: true,
			}).Create(rows[start:end])
			if result.Error != nil {
				return result.Error
			}
			inserted += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert cleaned records: %w", err)
	}
	return int(inserted), nil
}

// AppendLog stores one run summary
func (s *GormRecordStore) AppendLog(ctx context.Context, summary *entity.ExecutionSummary) error {
	errs, err := json.Marshal(summary.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}
	warnings, err := json.Marshal(summary.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	row := &PipelineLogs{
		RunID:                summary.RunID,
		Status:               summary.Status,
		StartTime:            summary.StartTime,
		EndTime:              summary.EndTime,
		ExecutionTimeSeconds: summary.ExecutionTimeSeconds,
		RecordsExtracted:     summary.RecordsExtracted,
		RecordsTransformed:   summary.RecordsTransformed,
		RecordsLoaded:        summary.RecordsLoaded,
		RecordsRejected:      summary.RecordsRejected,
		AverageQualityScore:  summary.AverageQualityScore,
		AcceptanceRate:       summary.AcceptanceRate,
		Errors:               string(errs),
		Warnings:             string(warnings),
		LogFile:              summary.LogFile,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to append pipeline log: %w", err)
	}
	return nil
}

// CountCleaned returns the number of rows in the cleaned table
func (s *GormRecordStore) CountCleaned(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&CleanedRecords{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count cleaned records: %w", err)
	}
	return n, nil
}

func (m *RawRecords) toEntity() *entity.RawRecord {
	return &entity.RawRecord{
		ID:            m.ID,
		SpeciesName:   m.SpeciesName,
		Location:      m.Location,
		Latitude:      m.Latitude,
		Longitude:     m.Longitude,
		SightingDate:  m.SightingDate,
		ObserverName:  m.ObserverName,
		ObserverEmail: m.ObserverEmail,
		Description:   m.Description,
		PhotoURL:      m.PhotoURL,
		CreatedAt:     m.CreatedAt,
	}
}

func fromRawEntity(r *entity.RawRecord) *RawRecords {
	return &RawRecords{
		ID:            r.ID,
		SpeciesName:   r.SpeciesName,
		Location:      r.Location,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		SightingDate:  r.SightingDate,
		ObserverName:  r.ObserverName,
		ObserverEmail: r.ObserverEmail,
		Description:   r.Description,
		PhotoURL:      r.PhotoURL,
		CreatedAt:     r.CreatedAt,
	}
}

func fromCleanedEntity(r *entity.CleanedRecord) *CleanedRecords {
	return &CleanedRecords{
		RawID:            r.RawID,
		SpeciesName:      r.SpeciesName,
		SpeciesCategory:  r.SpeciesCategory,
		Location:         r.Location,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		SightingDate:     r.SightingDate,
		ObserverName:     r.ObserverName,
		ObserverEmail:    r.ObserverEmail,
		Description:      r.Description,
		PhotoURL:         r.PhotoURL,
		ValidationStatus: r.ValidationStatus,
		DataQualityScore: r.DataQualityScore,
		ProcessedAt:      r.ProcessedAt,
	}
}
