package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/agrimanage/farmreg/internal/core"
	"github.com/agrimanage/farmreg/internal/domain/model"
	apperrors "github.com/agrimanage/farmreg/internal/errors"
)

// CardServiceOptions groups dependencies for CardService.
type CardServiceOptions struct {
	Farmers    core.FarmerRepository // Required
	Jobs       core.JobRepository    // Required
	Blobs      core.BlobRepository   // Required
	Renderer   core.CardRenderer     // Required
	QR         *QRService            // Required
	Logger     *slog.Logger          // Optional
	MaxRetries int                   // Retry budget stamped onto new jobs
	Clock      func() time.Time
}

// CardService orchestrates the ID-card artifact pipeline: enqueueing
// generation jobs, executing them on the worker path, and serving the
// resulting artifacts on the download path.
//
// Execution for a given farmer is serialized through a per-farmer lock, and
// the final pointer update is version guarded, so two racing generations can
// never leave the farmer record pointing at artifacts from different runs.
type CardService struct {
	farmers    core.FarmerRepository
	jobs       core.JobRepository
	blobs      core.BlobRepository
	renderer   core.CardRenderer
	qr         *QRService
	logger     *slog.Logger
	maxRetries int
	clock      func() time.Time
	perFarmer  *keyedLock
}

// NewCardService constructs a CardService.
func NewCardService(opts CardServiceOptions) (*CardService, error) {
	if opts.Farmers == nil || opts.Jobs == nil || opts.Blobs == nil {
		return nil, errors.New("farmer, job, and blob repositories are required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("card renderer is required")
	}
	if opts.QR == nil {
		return nil, errors.New("QR service is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &CardService{
		farmers:    opts.Farmers,
		jobs:       opts.Jobs,
		blobs:      opts.Blobs,
		renderer:   opts.Renderer,
		qr:         opts.QR,
		logger:     logger.With("component", "card_service"),
		maxRetries: retries,
		clock:      clock,
		perFarmer:  newKeyedLock(),
	}, nil
}

// Enqueue accepts a generation request for the farmer and returns the queued
// job immediately. Rendering happens later on the worker path; the caller
// polls the download endpoint for the artifact.
func (s *CardService) Enqueue(ctx context.Context, farmerID string) (*model.CardJob, error) {
	if _, err := s.farmers.FindByID(ctx, farmerID); err != nil {
		return nil, err
	}
	job, err := s.jobs.Enqueue(ctx, farmerID, s.maxRetries)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "enqueue card job")
	}
	s.logger.InfoContext(ctx, "card generation queued", "job_id", job.ID, "farmer_id", farmerID)
	return job, nil
}

// ErrFarmerGone marks a job failure as permanent: there is no point retrying
// a generation whose farmer record does not exist.
var ErrFarmerGone = errors.New("farmer record not found")

// Execute runs one reserved job: render the QR image and the card PDF in
// memory, upload both blobs, then atomically flip the farmer's artifact
// pointers. Concurrent executions for the same farmer serialize on a
// per-farmer lock; cross-process stragglers are rejected by the version check
// in the pointer update.
func (s *CardService) Execute(ctx context.Context, job *model.CardJob) error {
	s.perFarmer.Lock(job.FarmerID)
	defer s.perFarmer.Unlock(job.FarmerID)

	farmer, err := s.farmers.FindByID(ctx, job.FarmerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrFarmerGone, job.FarmerID)
		}
		return fmt.Errorf("load farmer: %w", err)
	}

	token := s.qr.Issue(farmer.FarmerID)
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal QR payload: %w", err)
	}
	qrPNG, err := s.renderer.RenderQR(payload)
	if err != nil {
		return fmt.Errorf("render QR image: %w", err)
	}

	var photo []byte
	if farmer.PhotoBlobID != "" {
		if blob, photoErr := s.blobs.Get(ctx, farmer.PhotoBlobID); photoErr == nil {
			photo = blob.Data
		} else {
			// The card renders with a placeholder; a broken photo reference
			// must not fail the whole generation.
			s.logger.WarnContext(ctx, "photo blob unavailable",
				"farmer_id", farmer.FarmerID, "photo_blob_id", farmer.PhotoBlobID, "error", photoErr)
		}
	}

	issuedAt := s.clock()
	pdf, err := s.renderer.RenderCard(core.RenderCardInput{
		Farmer:   farmer,
		QRPNG:    qrPNG,
		Photo:    photo,
		IssuedAt: issuedAt,
	})
	if err != nil {
		return fmt.Errorf("render card PDF: %w", err)
	}

	qrBlobID, err := s.blobs.Upload(ctx, &model.Blob{
		FarmerID:    farmer.FarmerID,
		Kind:        model.BlobKindQRImage,
		Filename:    farmer.FarmerID + "_qr.png",
		ContentType: model.BlobKindQRImage.ContentType(),
		Data:        qrPNG,
	})
	if err != nil {
		return fmt.Errorf("upload QR blob: %w", err)
	}
	cardBlobID, err := s.blobs.Upload(ctx, &model.Blob{
		FarmerID:    farmer.FarmerID,
		Kind:        model.BlobKindPDF,
		Filename:    farmer.FarmerID + "_card.pdf",
		ContentType: model.BlobKindPDF.ContentType(),
		Data:        pdf,
	})
	if err != nil {
		return fmt.Errorf("upload card blob: %w", err)
	}

	// Single mutation point: both pointers and the timestamp move together,
	// only after both uploads succeeded.
	updated, err := s.farmers.SetCardArtifacts(ctx, core.SetCardArtifactsParams{
		FarmerID:        farmer.FarmerID,
		CardBlobID:      cardBlobID,
		QRBlobID:        qrBlobID,
		GeneratedAt:     issuedAt,
		ExpectedVersion: farmer.CardVersion,
	})
	if err != nil {
		return fmt.Errorf("update card pointers: %w", err)
	}
	if !updated {
		// A concurrent generation won the pointer update. Its pair is
		// current and consistent; ours stays retrievable by blob id.
		s.logger.InfoContext(ctx, "card generation superseded",
			"job_id", job.ID, "farmer_id", farmer.FarmerID)
		return nil
	}

	s.logger.InfoContext(ctx, "card generated",
		"job_id", job.ID, "farmer_id", farmer.FarmerID,
		"card_blob_id", cardBlobID, "qr_blob_id", qrBlobID)
	return nil
}

// DownloadResult carries artifact bytes plus the response metadata.
type DownloadResult struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Download resolves the farmer's current artifact of the given kind and
// returns its bytes. A farmer whose card has not been generated yet yields
// not found, which clients treat as "retry later", not as a failure.
// Records predating blob storage fall back to the legacy on-disk path.
func (s *CardService) Download(ctx context.Context, farmerID string, kind model.BlobKind) (*DownloadResult, error) {
	farmer, err := s.farmers.FindByID(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	blobID := farmer.CardBlobID
	if kind == model.BlobKindQRImage {
		blobID = farmer.QRBlobID
	}

	if blobID != "" {
		blob, err := s.blobs.Get(ctx, blobID)
		if err != nil {
			return nil, err
		}
		return &DownloadResult{
			Data:        blob.Data,
			ContentType: blob.ContentType,
			Filename:    blob.Filename,
		}, nil
	}

	if kind == model.BlobKindPDF && farmer.LegacyCardPath != "" {
		data, err := os.ReadFile(farmer.LegacyCardPath)
		if err != nil {
			return nil, apperrors.NotFound("ID card file missing on disk")
		}
		return &DownloadResult{
			Data:        data,
			ContentType: model.BlobKindPDF.ContentType(),
			Filename:    filepath.Base(farmer.LegacyCardPath),
		}, nil
	}

	return nil, apperrors.NotFound("ID card not generated yet")
}

// JobStatus returns the polling view of a generation job.
func (s *CardService) JobStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &model.JobStatusResponse{
		ID:          job.ID,
		FarmerID:    job.FarmerID,
		Status:      job.Status,
		RetryCount:  job.RetryCount,
		LastError:   job.LastError,
		CompletedAt: job.CompletedAt,
	}, nil
}
