package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/pagecomposer/internal/gcp"
	"github.com/Lllllllleong/pagecomposer/internal/models"
	"github.com/Lllllllleong/pagecomposer/internal/pdfdoc"
)

// IndexerConfig holds all configuration for the indexer service.
type IndexerConfig struct {
	ProjectID      string
	CollectionName string
}

// IndexerFunction records uploaded source PDFs so assemblies can be
// built from them.
type IndexerFunction struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	config          IndexerConfig
}

// GCSEvent is the payload of a Cloud Storage object finalize event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// NewIndexer creates a new IndexerFunction instance.
func NewIndexer(ctx context.Context) (*IndexerFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := IndexerConfig{
		ProjectID:      projectID,
		CollectionName: gcp.GetEnv("SOURCES_COLLECTION", "sources"),
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	f := &IndexerFunction{
		firestoreClient: firestoreClient,
		storageClient:   storageClient,
		config:          config,
	}
	slog.Info("Source indexer logic initialized.", "collection", config.CollectionName)
	return f, nil
}

// Process indexes the uploaded object named by e. Non-PDF objects and
// files whose hash is already recorded are skipped.
func (f *IndexerFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if !isPDFObject(e.Name) {
		logCtx.Info("Ignoring non-PDF object.")
		return nil
	}
	logCtx.Info("Processing new GCS object.")

	uri := gcp.URI(e.Bucket, e.Name)
	data, err := gcp.ReadObject(ctx, f.storageClient, uri)
	if err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return err
	}

	fileHash := calculateHash(data)
	logCtx = logCtx.With("fileHash", fileHash)

	isDuplicate, docID, err := f.isDuplicate(ctx, fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	if isDuplicate {
		logCtx.Info("Duplicate file detected. Skipping.", "existingDocId", docID)
		return nil
	}

	docRef, _, err := f.firestoreClient.Collection(f.config.CollectionName).Add(ctx, models.Source{
		FileHash:         fileHash,
		OriginalFilename: e.Name,
		GCSUri:           uri,
		Status:           "VALIDATING",
		CreatedAt:        time.Now(),
	})
	if err != nil {
		logCtx.Error("Failed to create initial Firestore document", "error", err)
		return fmt.Errorf("failed to create source document: %w", err)
	}
	logCtx = logCtx.With("documentId", docRef.ID)

	doc, err := pdfdoc.FromBytes(data)
	if err != nil {
		logCtx.Error("Failed to validate PDF", "error", err)
		if uerr := gcp.UpdateStatus(ctx, docRef, "FAILED", err.Error()); uerr != nil {
			logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", uerr)
		}
		return fmt.Errorf("failed to validate PDF: %w", err)
	}
	defer doc.Close()

	if err := gcp.UpdateStatus(ctx, docRef, "INDEXED", "", firestore.Update{Path: "pageCount", Value: doc.NumPages()}); err != nil {
		logCtx.Error("Failed to update status to INDEXED", "error", err)
		return fmt.Errorf("failed to update status to INDEXED: %w", err)
	}
	logCtx.Info("Source indexed.", "pageCount", doc.NumPages())
	return nil
}

func (f *IndexerFunction) isDuplicate(ctx context.Context, fileHash string) (bool, string, error) {
	docs, err := f.firestoreClient.Collection(f.config.CollectionName).Where("fileHash", "==", fileHash).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, "", fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) > 0 {
		return true, docs[0].Ref.ID, nil
	}
	return false, "", nil
}

func isPDFObject(name string) bool {
	return strings.EqualFold(path.Ext(name), ".pdf")
}

func calculateHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
