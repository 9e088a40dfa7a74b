package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeTrainingStore struct {
	nextID    uint
	docs      map[uint]*models.TrainingDocument
	jobs      []*models.FineTuneJob
	exported  []uint
	createErr error
}

func newFakeTrainingStore() *fakeTrainingStore {
	return &fakeTrainingStore{nextID: 1, docs: map[uint]*models.TrainingDocument{}}
}

func (s *fakeTrainingStore) Create(doc *models.TrainingDocument) error {
	if s.createErr != nil {
		return s.createErr
	}
	doc.ID = s.nextID
	s.nextID++
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *fakeTrainingStore) GetByID(id uint) (*models.TrainingDocument, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *doc
	return &copied, nil
}

func (s *fakeTrainingStore) Update(doc *models.TrainingDocument) error {
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *fakeTrainingStore) GetByBatchID(batchID string) ([]models.TrainingDocument, error) {
	var out []models.TrainingDocument
	for _, doc := range s.docs {
		if doc.BatchID == batchID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (s *fakeTrainingStore) List(status string, docType models.DocumentType, offset, limit int) ([]models.TrainingDocument, int64, error) {
	var out []models.TrainingDocument
	for _, doc := range s.docs {
		if (status == "" || doc.Status == status) && (docType == "" || doc.DocumentType == docType) {
			out = append(out, *doc)
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeTrainingStore) CountVerified(docType models.DocumentType) (int64, error) {
	var count int64
	for _, doc := range s.docs {
		if doc.DocumentType == docType && doc.Status == models.TrainingStatusVerified {
			count++
		}
	}
	return count, nil
}

func (s *fakeTrainingStore) GetVerified(docType models.DocumentType) ([]models.TrainingDocument, error) {
	var out []models.TrainingDocument
	for id := uint(1); id < s.nextID; id++ {
		if doc, ok := s.docs[id]; ok && doc.DocumentType == docType && doc.Status == models.TrainingStatusVerified {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (s *fakeTrainingStore) MarkExported(ids []uint) error {
	for _, id := range ids {
		if doc, ok := s.docs[id]; ok {
			doc.Status = models.TrainingStatusExported
		}
	}
	s.exported = append(s.exported, ids...)
	return nil
}

func (s *fakeTrainingStore) CreateFineTuneJob(job *models.FineTuneJob) error {
	copied := *job
	s.jobs = append(s.jobs, &copied)
	return nil
}

func (s *fakeTrainingStore) GetPendingFineTuneJob(docType models.DocumentType) (*models.FineTuneJob, error) {
	for _, job := range s.jobs {
		if job.DocumentType == docType && job.Status == models.FineTuneStatusPending {
			return job, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeTrainingStore) UpdateFineTuneJob(job *models.FineTuneJob) error {
	for i, existing := range s.jobs {
		if existing.ID == job.ID || (existing.DocumentType == job.DocumentType && existing.Status == models.FineTuneStatusPending) {
			copied := *job
			s.jobs[i] = &copied
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *fakeTrainingStore) ListFineTuneJobs() ([]models.FineTuneJob, error) {
	var out []models.FineTuneJob
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	return out, nil
}

type trainingFixture struct {
	svc       *TrainingService
	repo      *fakeTrainingStore
	storage   *fakeStorage
	extractor *fakeExtractor
}

func newTrainingFixture(threshold int) *trainingFixture {
	f := &trainingFixture{
		repo:      newFakeTrainingStore(),
		storage:   newFakeStorage(),
		extractor: &fakeExtractor{extractData: json.RawMessage(`{"property_name":"Main St Plaza"}`)},
	}
	f.svc = NewTrainingService(f.repo, f.storage, f.extractor, threshold, zap.NewNop())
	return f
}

func (f *trainingFixture) seedVerified(t *testing.T, docType models.DocumentType, n int) {
	t.Helper()
	verifier := uint(1)
	for i := 0; i < n; i++ {
		require.NoError(t, f.repo.Create(&models.TrainingDocument{
			BatchID:      "seed",
			DocumentType: docType,
			FileName:     "doc.pdf",
			FileKey:      "training/seed/doc.pdf",
			FileURL:      "https://cdn.test/training/seed/doc.pdf",
			Status:       models.TrainingStatusVerified,
			VerifiedData: []byte(`{"property_name":"Seed"}`),
			VerifiedBy:   &verifier,
		}))
	}
}

func TestUploadBatch_PartialFailureKeepsBatch(t *testing.T) {
	f := newTrainingFixture(50)

	files := []*multipart.FileHeader{
		makeFileHeader(t, "a.pdf", "application/pdf", pdfWithPages(2)),
		makeFileHeader(t, "b.docx", "application/msword", []byte("nope")),
	}

	resp, err := f.svc.UploadBatch(context.Background(), models.DocTypeRentRoll, files)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.BatchID)
	require.Len(t, resp.Documents, 1)
	require.Len(t, resp.Failed, 1)
	assert.Contains(t, resp.Failed[0], "b.docx")

	doc := resp.Documents[0]
	assert.Equal(t, models.TrainingStatusExtracted, doc.Status)
	assert.Equal(t, 2, doc.PageCount)
	assert.Contains(t, doc.FileKey, "training/"+resp.BatchID+"/")
	assert.Contains(t, f.storage.files, doc.FileKey)
}

func TestUploadBatch_ExtractionFailureStaysPending(t *testing.T) {
	f := newTrainingFixture(50)
	f.extractor.extractErr = assert.AnError

	resp, err := f.svc.UploadBatch(context.Background(), models.DocTypeRentRoll,
		[]*multipart.FileHeader{makeFileHeader(t, "a.pdf", "application/pdf", pdfWithPages(1))})
	require.NoError(t, err)

	require.Len(t, resp.Documents, 1)
	assert.Equal(t, models.TrainingStatusPending, resp.Documents[0].Status)
	assert.Empty(t, resp.Documents[0].ExtractedData)
}

func TestVerify_SetsVerifierAndData(t *testing.T) {
	f := newTrainingFixture(50)
	require.NoError(t, f.repo.Create(&models.TrainingDocument{
		DocumentType: models.DocTypeRentRoll,
		Status:       models.TrainingStatusExtracted,
	}))

	doc, err := f.svc.Verify(1, 42, json.RawMessage(`{"property_name":"Corrected"}`))
	require.NoError(t, err)

	assert.Equal(t, models.TrainingStatusVerified, doc.Status)
	require.NotNil(t, doc.VerifiedBy)
	assert.Equal(t, uint(42), *doc.VerifiedBy)
	assert.JSONEq(t, `{"property_name":"Corrected"}`, string(doc.VerifiedData))
}

func TestVerify_RejectsInvalidStatesAndData(t *testing.T) {
	f := newTrainingFixture(50)
	require.NoError(t, f.repo.Create(&models.TrainingDocument{
		DocumentType: models.DocTypeRentRoll,
		Status:       models.TrainingStatusExported,
	}))

	_, err := f.svc.Verify(1, 42, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrTrainingDocNotReady)

	require.NoError(t, f.repo.Create(&models.TrainingDocument{
		DocumentType: models.DocTypeRentRoll,
		Status:       models.TrainingStatusExtracted,
	}))
	_, err = f.svc.Verify(2, 42, json.RawMessage(`not json`))
	assert.Error(t, err)

	_, err = f.svc.Verify(99, 42, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrTrainingDocNotFound)
}

func TestVerify_ThresholdOpensSingleFineTuneJob(t *testing.T) {
	f := newTrainingFixture(3)
	f.seedVerified(t, models.DocTypeRentRoll, 2)

	require.NoError(t, f.repo.Create(&models.TrainingDocument{
		DocumentType: models.DocTypeRentRoll,
		Status:       models.TrainingStatusExtracted,
	}))
	require.NoError(t, f.repo.Create(&models.TrainingDocument{
		DocumentType: models.DocTypeRentRoll,
		Status:       models.TrainingStatusExtracted,
	}))

	// Üçüncü onay eşiği tetikler
	_, err := f.svc.Verify(3, 1, json.RawMessage(`{}`))
	require.NoError(t, err)
	require.Len(t, f.repo.jobs, 1)
	assert.Equal(t, models.DocTypeRentRoll, f.repo.jobs[0].DocumentType)
	assert.Equal(t, 3, f.repo.jobs[0].DocumentCount)

	// Dördüncü onay bekleyen iş varken yenisini açmaz
	_, err = f.svc.Verify(4, 1, json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Len(t, f.repo.jobs, 1)
}

func TestVerify_ThresholdIsPerDocumentType(t *testing.T) {
	f := newTrainingFixture(3)
	f.seedVerified(t, models.DocTypeRentRoll, 2)

	require.NoError(t, f.repo.Create(&models.TrainingDocument{
		DocumentType: models.DocTypeLeaseAgreement,
		Status:       models.TrainingStatusExtracted,
	}))

	// Farklı türdeki onay rent_roll eşiğini tetiklemez
	_, err := f.svc.Verify(3, 1, json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.Empty(t, f.repo.jobs)
}

func TestExportJSONL_WritesChatFormat(t *testing.T) {
	f := newTrainingFixture(50)
	f.seedVerified(t, models.DocTypeRentRoll, 2)

	resp, err := f.svc.ExportJSONL(models.DocTypeRentRoll)
	require.NoError(t, err)

	assert.Equal(t, 2, resp.DocumentCount)
	assert.True(t, strings.HasPrefix(resp.ExportKey, "training/exports/"))

	content, ok := f.storage.files[resp.ExportKey]
	require.True(t, ok)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	var lines int
	for scanner.Scan() {
		var line struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		require.Len(t, line.Messages, 3)
		assert.Equal(t, "system", line.Messages[0].Role)
		assert.Equal(t, "user", line.Messages[1].Role)
		assert.Equal(t, "assistant", line.Messages[2].Role)
		assert.JSONEq(t, `{"property_name":"Seed"}`, line.Messages[2].Content)
		lines++
	}
	assert.Equal(t, 2, lines)

	// Export edilen örnekler tekrar export edilmez
	for _, id := range f.repo.exported {
		assert.Equal(t, models.TrainingStatusExported, f.repo.docs[id].Status)
	}
	_, err = f.svc.ExportJSONL(models.DocTypeRentRoll)
	assert.ErrorIs(t, err, ErrNoVerifiedDocuments)
}

func TestExportJSONL_ClosesPendingJob(t *testing.T) {
	f := newTrainingFixture(2)
	f.seedVerified(t, models.DocTypeRentRoll, 1)

	require.NoError(t, f.repo.Create(&models.TrainingDocument{
		DocumentType: models.DocTypeRentRoll,
		Status:       models.TrainingStatusExtracted,
	}))
	_, err := f.svc.Verify(2, 1, json.RawMessage(`{}`))
	require.NoError(t, err)
	require.Len(t, f.repo.jobs, 1)

	resp, err := f.svc.ExportJSONL(models.DocTypeRentRoll)
	require.NoError(t, err)

	jobs, _ := f.repo.ListFineTuneJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, models.FineTuneStatusExported, jobs[0].Status)
	assert.Equal(t, resp.ExportKey, jobs[0].ExportKey)
}
