// internal/services/import_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/biologist/catalog-backend/internal/config"
	"github.com/biologist/catalog-backend/internal/importer"
	"github.com/biologist/catalog-backend/internal/models"
	"github.com/biologist/catalog-backend/internal/utils"
)

var ErrImportRunNotFound = errors.New("import run not found")

type ImportService struct {
	db      *gorm.DB
	storage *StorageService
	lock    RunLock
	config  *config.Config
}

type ImportRequest struct {
	Source           string `json:"source" validate:"required,max=500"`
	FallbackCategory string `json:"fallback_category" validate:"omitempty,max=200"`
}

type ImportResult struct {
	Run     *models.ImportRun `json:"run"`
	Summary *importer.Summary `json:"summary,omitempty"`
}

func NewImportService(db *gorm.DB, storage *StorageService, lock RunLock, config *config.Config) *ImportService {
	return &ImportService{
		db:      db,
		storage: storage,
		lock:    lock,
		config:  config,
	}
}

// ImportSource runs the pipeline over a local path or s3:// location.
func (s *ImportService) ImportSource(ctx context.Context, req *ImportRequest, trigger models.ImportTrigger) (*ImportResult, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	file, err := s.storage.Open(ctx, req.Source)
	if err != nil {
		run := s.recordFailure(ctx, req.Source, "", trigger, req.FallbackCategory, err)
		return &ImportResult{Run: run}, err
	}

	return s.importFile(ctx, file, trigger, req.FallbackCategory)
}

// ImportUpload archives an uploaded spreadsheet and imports it.
func (s *ImportService) ImportUpload(ctx context.Context, filename string, data []byte, fallbackCategory string) (*ImportResult, error) {
	if !importer.SupportedExtension(filename) {
		err := fmt.Errorf("%w: unsupported file type %q", importer.ErrSourceUnreadable, filepath.Ext(filename))
		run := s.recordFailure(ctx, filename, utils.Checksum(data), models.ImportTriggerAdmin, fallbackCategory, err)
		return &ImportResult{Run: run}, err
	}

	ref, err := s.storage.Archive(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to archive upload: %w", err)
	}

	file := &SourceFile{Ref: ref, Name: filename, Data: data}
	return s.importFile(ctx, file, models.ImportTriggerAdmin, fallbackCategory)
}

// SeedIfEmpty imports the default source when the catalog has no products.
// It returns a nil result when nothing was imported.
func (s *ImportService) SeedIfEmpty(ctx context.Context) (*ImportResult, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	if count > 0 {
		logrus.WithField("products", count).Info("Catalog already populated, skipping seed import")
		return nil, nil
	}

	if s.config.Import.DefaultSource == "" {
		logrus.Info("No default import source configured, skipping seed import")
		return nil, nil
	}

	logrus.WithField("source", s.config.Import.DefaultSource).Info("Catalog is empty, importing default source")
	return s.ImportSource(ctx, &ImportRequest{Source: s.config.Import.DefaultSource}, models.ImportTriggerSeed)
}

func (s *ImportService) importFile(ctx context.Context, file *SourceFile, trigger models.ImportTrigger, fallbackCategory string) (*ImportResult, error) {
	if fallbackCategory == "" {
		fallbackCategory = s.config.Import.FallbackCategory
	}

	held, release, err := s.lock.Acquire(ctx, s.config.Import.LockName)
	if err != nil {
		return nil, err
	}
	defer release()

	run := &models.ImportRun{
		Source:           file.Ref,
		Checksum:         utils.Checksum(file.Data),
		Trigger:          trigger,
		Status:           models.ImportRunStatusRunning,
		FallbackCategory: fallbackCategory,
		StartedAt:        time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to record import run: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"run_id":  run.ID,
		"source":  run.Source,
		"trigger": trigger,
	})
	log.Info("Import started")

	rows, err := importer.ReadRows(file.Name, bytes.NewReader(file.Data))
	if err != nil {
		s.finish(run, nil, err)
		log.WithError(err).Error("Import source unreadable")
		return &ImportResult{Run: run}, err
	}

	// Rows are applied under the lock's context so a lost lock stops the run.
	summary, err := importer.New(s.db, importer.Options{
		FallbackCategory: fallbackCategory,
		Logger:           log,
	}).Run(held, rows)
	if err != nil {
		s.finish(run, nil, err)
		log.WithError(err).Error("Import aborted")
		return &ImportResult{Run: run}, err
	}

	s.finish(run, summary, nil)
	return &ImportResult{Run: run, Summary: summary}, nil
}

// finish stores the outcome. It uses a fresh context so a cancelled request
// still leaves an accurate history entry.
func (s *ImportService) finish(run *models.ImportRun, summary *importer.Summary, runErr error) {
	now := time.Now()
	run.CompletedAt = &now

	if runErr != nil {
		run.Status = models.ImportRunStatusFailed
		run.FailureReason = runErr.Error()
	} else {
		run.Status = models.ImportRunStatusCompleted
		run.TotalRows = summary.TotalRows
		run.CategoriesCreated = summary.CategoriesCreated
		run.SubcategoriesCreated = summary.SubcategoriesCreated
		run.ProductsCreated = summary.ProductsCreated
		run.VariantsCreated = summary.VariantsCreated
		run.VariantsUpdated = summary.VariantsUpdated
		run.VariantsUnchanged = summary.VariantsUnchanged
		run.RowsSkipped = summary.RowsSkipped
		run.RowsFailed = summary.RowsFailed
		run.Warnings = toJSONArray(summary.Warnings)
		run.Errors = toJSONArray(summary.Errors)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.db.WithContext(ctx).Save(run).Error; err != nil {
		logrus.WithError(err).WithField("run_id", run.ID).Error("Failed to update import run")
	}
}

func (s *ImportService) recordFailure(ctx context.Context, source, checksum string, trigger models.ImportTrigger, fallbackCategory string, cause error) *models.ImportRun {
	now := time.Now()
	run := &models.ImportRun{
		Source:           source,
		Checksum:         checksum,
		Trigger:          trigger,
		Status:           models.ImportRunStatusFailed,
		FallbackCategory: fallbackCategory,
		FailureReason:    cause.Error(),
		StartedAt:        now,
		CompletedAt:      &now,
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		logrus.WithError(err).Error("Failed to record failed import run")
	}
	logrus.WithError(cause).WithField("source", source).Error("Import source unreadable")
	return run
}

func (s *ImportService) ListRuns(params utils.PaginationParams) ([]models.ImportRun, int64, error) {
	var runs []models.ImportRun
	var total int64

	query := s.db.Model(&models.ImportRun{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count import runs: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"started_at", "created_at", "status"})
	if err := utils.ApplyPagination(query, params).Find(&runs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list import runs: %w", err)
	}

	return runs, total, nil
}

func (s *ImportService) GetRun(id uuid.UUID) (*models.ImportRun, error) {
	var run models.ImportRun
	if err := s.db.First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImportRunNotFound
		}
		return nil, fmt.Errorf("failed to get import run: %w", err)
	}
	return &run, nil
}

func toJSONArray(v interface{}) models.JSONArray {
	bytes, err := json.Marshal(v)
	if err != nil {
		return models.JSONArray{}
	}
	var out models.JSONArray
	if err := json.Unmarshal(bytes, &out); err != nil || out == nil {
		return models.JSONArray{}
	}
	return out
}
