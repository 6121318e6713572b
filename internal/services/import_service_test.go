// internal/services/import_service_test.go
package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/biologist/catalog-backend/internal/config"
	"github.com/biologist/catalog-backend/internal/importer"
	"github.com/biologist/catalog-backend/internal/models"
	"github.com/biologist/catalog-backend/internal/testutil"
	"github.com/biologist/catalog-backend/internal/utils"
)

type ImportServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	cfg     *config.Config
	lock    *LocalRunLock
	service *ImportService
	dir     string
	ctx     context.Context
}

func (suite *ImportServiceTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.cfg = testConfig(suite.T())
	suite.dir = suite.T().TempDir()
	suite.lock = NewLocalRunLock()
	storage, err := NewStorageService(suite.cfg)
	require.NoError(suite.T(), err)
	suite.service = NewImportService(suite.db, storage, suite.lock, suite.cfg)
	suite.ctx = context.Background()
}

func (suite *ImportServiceTestSuite) workbook() string {
	return writeWorkbook(suite.T(), suite.dir, [][]interface{}{
		catalogHeader,
		{"Kit A", "A-1", "Reagents", "Enzymes", 10, "ml", "12.50"},
		{"Kit A", "A-2", "Reagents", "Enzymes", 50, "ml", "POR"},
		{"Kit B", "", "Reagents", "", 1, "", ""},
	})
}

func (suite *ImportServiceTestSuite) TestImportSourceRecordsRun() {
	path := suite.workbook()

	result, err := suite.service.ImportSource(suite.ctx, &ImportRequest{Source: path}, models.ImportTriggerCLI)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), result.Summary)

	assert.Equal(suite.T(), 3, result.Summary.TotalRows)
	assert.Equal(suite.T(), 2, result.Summary.VariantsCreated)
	assert.Equal(suite.T(), 1, result.Summary.RowsSkipped)

	run, err := suite.service.GetRun(result.Run.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ImportRunStatusCompleted, run.Status)
	assert.Equal(suite.T(), models.ImportTriggerCLI, run.Trigger)
	assert.Equal(suite.T(), path, run.Source)
	assert.Equal(suite.T(), 2, run.VariantsCreated)
	assert.Equal(suite.T(), 1, run.RowsSkipped)
	assert.Len(suite.T(), run.Errors, 1)
	assert.Equal(suite.T(), "Uncategorized", run.FallbackCategory)
	assert.NotNil(suite.T(), run.CompletedAt)

	data, err := os.ReadFile(path)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), utils.Checksum(data), run.Checksum)
}

func (suite *ImportServiceTestSuite) TestMissingSourceIsFatal() {
	result, err := suite.service.ImportSource(suite.ctx, &ImportRequest{Source: filepath.Join(suite.dir, "missing.xlsx")}, models.ImportTriggerCLI)
	assert.ErrorIs(suite.T(), err, importer.ErrSourceUnreadable)
	require.NotNil(suite.T(), result)
	assert.Nil(suite.T(), result.Summary)
	assert.Equal(suite.T(), models.ImportRunStatusFailed, result.Run.Status)

	var products int64
	suite.db.Model(&models.Product{}).Count(&products)
	assert.Zero(suite.T(), products)
}

func (suite *ImportServiceTestSuite) TestImportFailsFastWhileLocked() {
	_, release, err := suite.lock.Acquire(suite.ctx, suite.cfg.Import.LockName)
	require.NoError(suite.T(), err)

	_, err = suite.service.ImportSource(suite.ctx, &ImportRequest{Source: suite.workbook()}, models.ImportTriggerCLI)
	assert.ErrorIs(suite.T(), err, ErrImportInProgress)

	release()
	_, err = suite.service.ImportSource(suite.ctx, &ImportRequest{Source: suite.workbook()}, models.ImportTriggerCLI)
	assert.NoError(suite.T(), err)
}

// expiredLock hands out a lock whose context is already lost.
type expiredLock struct{}

func (expiredLock) Acquire(ctx context.Context, name string) (context.Context, func(), error) {
	held, cancel := context.WithCancelCause(ctx)
	cancel(ErrImportLockLost)
	return held, func() {}, nil
}

func (expiredLock) Close() error { return nil }

func (suite *ImportServiceTestSuite) TestLostLockFailsRun() {
	storage, err := NewStorageService(suite.cfg)
	require.NoError(suite.T(), err)
	service := NewImportService(suite.db, storage, expiredLock{}, suite.cfg)

	result, err := service.ImportSource(suite.ctx, &ImportRequest{Source: suite.workbook()}, models.ImportTriggerCLI)
	assert.ErrorIs(suite.T(), err, ErrImportLockLost)
	require.NotNil(suite.T(), result)

	run, err := suite.service.GetRun(result.Run.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ImportRunStatusFailed, run.Status)
	assert.Contains(suite.T(), run.FailureReason, "import lock lost")

	var products int64
	suite.db.Model(&models.Product{}).Count(&products)
	assert.Zero(suite.T(), products)
}

func (suite *ImportServiceTestSuite) TestSeedIfEmptyRunsOnce() {
	suite.cfg.Import.DefaultSource = suite.workbook()

	first, err := suite.service.SeedIfEmpty(suite.ctx)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), first)
	assert.Equal(suite.T(), models.ImportTriggerSeed, first.Run.Trigger)
	assert.Equal(suite.T(), 1, first.Summary.ProductsCreated)

	second, err := suite.service.SeedIfEmpty(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), second)

	var runs int64
	suite.db.Model(&models.ImportRun{}).Count(&runs)
	assert.Equal(suite.T(), int64(1), runs)
}

func (suite *ImportServiceTestSuite) TestImportUploadArchivesLocally() {
	data, err := os.ReadFile(suite.workbook())
	require.NoError(suite.T(), err)

	result, err := suite.service.ImportUpload(suite.ctx, "Price List.xlsx", data, "Misc")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.ImportTriggerAdmin, result.Run.Trigger)
	assert.Equal(suite.T(), "Misc", result.Run.FallbackCategory)

	archived, err := os.ReadFile(result.Run.Source)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), data, archived)
}

func (suite *ImportServiceTestSuite) TestImportUploadRejectsUnsupportedType() {
	result, err := suite.service.ImportUpload(suite.ctx, "notes.txt", []byte("hello"), "")
	assert.ErrorIs(suite.T(), err, importer.ErrSourceUnreadable)
	assert.Equal(suite.T(), models.ImportRunStatusFailed, result.Run.Status)
}

func (suite *ImportServiceTestSuite) TestListRuns() {
	path := suite.workbook()
	for i := 0; i < 3; i++ {
		_, err := suite.service.ImportSource(suite.ctx, &ImportRequest{Source: path}, models.ImportTriggerCLI)
		require.NoError(suite.T(), err)
	}

	runs, total, err := suite.service.ListRuns(utils.DefaultPagination(2))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(3), total)
	assert.Len(suite.T(), runs, 2)
}

func (suite *ImportServiceTestSuite) TestImportRequestValidation() {
	_, err := suite.service.ImportSource(suite.ctx, &ImportRequest{}, models.ImportTriggerAdmin)
	assert.NotEmpty(suite.T(), utils.GetValidationErrors(err))
}

func TestImportServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ImportServiceTestSuite))
}
