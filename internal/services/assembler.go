package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/pagecomposer/internal/gcp"
	"github.com/Lllllllleong/pagecomposer/internal/models"
	"github.com/Lllllllleong/pagecomposer/internal/pdfdoc"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidRequest is returned for assemble requests that cannot be run.
var ErrInvalidRequest = errors.New("invalid assemble request")

// AssemblerConfig holds all configuration for the assembler service.
type AssemblerConfig struct {
	ProjectID        string
	OutputBucket     string
	CollectionName   string
	MaxHistorySize   int
	MergeConcurrency int
	Creator          string
}

// AssemblerFunction holds the dependencies for the assembly logic.
type AssemblerFunction struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	merger          *Merger
	config          AssemblerConfig
}

// loadAssemblerConfig loads and validates all necessary environment variables for this service.
func loadAssemblerConfig() (*AssemblerConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	outputBucket := gcp.GetEnv("OUTPUT_BUCKET", "")
	if outputBucket == "" {
		return nil, fmt.Errorf("OUTPUT_BUCKET environment variable must be set")
	}
	maxHistory, err := envInt("MAX_HISTORY_SIZE", 50)
	if err != nil {
		return nil, err
	}
	concurrency, err := envInt("MERGE_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}

	return &AssemblerConfig{
		ProjectID:        projectID,
		OutputBucket:     outputBucket,
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", "assemblies"),
		MaxHistorySize:   maxHistory,
		MergeConcurrency: concurrency,
		Creator:          gcp.GetEnv("PDF_CREATOR", "Page Composer"),
	}, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := gcp.GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

// NewAssembler creates a new AssemblerFunction instance.
func NewAssembler(ctx context.Context) (*AssemblerFunction, error) {
	config, err := loadAssemblerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	slog.Info("Assembler logic initialized.", "outputBucket", config.OutputBucket, "maxHistorySize", config.MaxHistorySize)
	return &AssemblerFunction{
		storageClient:   storageClient,
		firestoreClient: firestoreClient,
		merger:          NewMerger(config.Creator, config.MergeConcurrency),
		config:          *config,
	}, nil
}

func validateRequest(req *models.AssembleRequest) error {
	if len(req.Sources) == 0 {
		return fmt.Errorf("%w: no sources", ErrInvalidRequest)
	}
	if req.OutputName == "" || path.Base(req.OutputName) != req.OutputName {
		return fmt.Errorf("%w: output name %q", ErrInvalidRequest, req.OutputName)
	}
	for i, src := range req.Sources {
		if _, _, err := gcp.ParseURI(src.GCSUri); err != nil {
			return fmt.Errorf("%w: source %d: %w", ErrInvalidRequest, i, err)
		}
	}
	return nil
}

// Process loads the requested sources, replays the edits and writes the
// merged PDF to the output bucket.
func (f *AssemblerFunction) Process(ctx context.Context, req *models.AssembleRequest) (*models.AssembleResponse, error) {
	logCtx := slog.With("executionId", req.ExecutionID, "sourceCount", len(req.Sources), "editCount", len(req.Edits))
	if err := validateRequest(req); err != nil {
		logCtx.Warn("Rejected assemble request.", "error", err)
		return nil, err
	}

	docRef, _, err := f.firestoreClient.Collection(f.config.CollectionName).Add(ctx, models.Assembly{
		Status:      "LOADING",
		SourceCount: len(req.Sources),
		EditCount:   len(req.Edits),
		ExecutionID: req.ExecutionID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		logCtx.Error("Failed to create assembly record", "error", err)
		return nil, fmt.Errorf("failed to create assembly record: %w", err)
	}
	logCtx = logCtx.With("assemblyId", docRef.ID)
	logCtx.Info("Created assembly record in Firestore.")

	files, err := f.downloadSources(ctx, logCtx, req.Sources)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "failed to download sources", err)
	}
	results, err := pdfdoc.LoadAll(ctx, files, f.config.MergeConcurrency)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "failed to load sources", err)
	}

	session := NewSession(f.config.MaxHistorySize, f.merger, logCtx)
	defer session.Close()
	failed := session.Load(results)
	if session.Workspace.IsEmpty() {
		return nil, f.handleError(ctx, logCtx, docRef, "no source could be loaded", ErrNoPages)
	}

	if err := gcp.UpdateStatus(ctx, docRef, "EDITING", ""); err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "failed to update status to EDITING", err)
	}
	if _, err := session.Apply(req.Edits); err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "failed to apply edits", err)
	}

	merged, err := session.Save(ctx, req.Metadata)
	if err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "failed to merge pages", err)
	}

	objectName := fmt.Sprintf("%s/%s", docRef.ID, req.OutputName)
	if err := gcp.SaveToGCSAtomically(ctx, f.storageClient.Bucket(f.config.OutputBucket), objectName, "application/pdf", merged); err != nil {
		return nil, f.handleError(ctx, logCtx, docRef, "failed to upload merged pdf", err)
	}
	outputURI := gcp.URI(f.config.OutputBucket, objectName)

	pageCount := session.Workspace.PageCount()
	if err := gcp.UpdateStatus(ctx, docRef, "COMPLETE", "",
		firestore.Update{Path: "pageCount", Value: pageCount},
		firestore.Update{Path: "outputGcsUri", Value: outputURI},
	); err != nil {
		logCtx.Error("Failed to mark assembly complete", "error", err)
	}
	logCtx.Info("Assembly complete.", "pageCount", pageCount, "outputGcsUri", outputURI)

	res := &models.AssembleResponse{
		Status:        "success",
		AssemblyID:    docRef.ID,
		OutputGCSUri:  outputURI,
		PageCount:     pageCount,
		FailedSources: failed,
	}
	res.UndoDescription, _ = session.History.UndoDescription()
	res.RedoDescription, _ = session.History.RedoDescription()
	return res, nil
}

func (f *AssemblerFunction) downloadSources(ctx context.Context, logCtx *slog.Logger, sources []models.SourceRef) ([]pdfdoc.File, error) {
	logCtx.Info("Starting concurrent download of sources.")
	files := make([]pdfdoc.File, len(sources))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(10)

	for i, src := range sources {
		eg.Go(func() error {
			data, err := gcp.ReadObject(gctx, f.storageClient, src.GCSUri)
			if err != nil {
				return fmt.Errorf("source %d: %w", i, err)
			}
			name := src.FileName
			if name == "" {
				_, object, _ := gcp.ParseURI(src.GCSUri)
				name = path.Base(object)
			}
			files[i] = pdfdoc.File{Name: name, Data: data}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	logCtx.Info("All sources downloaded.")
	return files, nil
}

func (f *AssemblerFunction) handleError(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, message string, originalErr error) error {
	logCtx.Error(message, "error", originalErr)
	if err := gcp.UpdateStatus(ctx, docRef, "FAILED", fmt.Sprintf("%s: %v", message, originalErr)); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}
