package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const (
	StorageProviderGCS   = "gcs"
	StorageProviderLocal = "local"
)

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderLocal
	}
	return provider
}

// getGoogleClient initializes a Google Cloud Storage client.
// Prefer ADC (Cloud Run service account / GOOGLE_APPLICATION_CREDENTIALS).
// If you need to provide explicit JSON (e.g. locally), set GCS_CREDENTIALS_JSON.
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		client, err := storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// SaveInvoiceDocument persists an uploaded invoice document and returns the
// opaque path stored on the Invoice record. The path is never interpreted by
// the verification core.
func SaveInvoiceDocument(ctx context.Context, fileName string, data []byte) (string, error) {
	objectName := fmt.Sprintf("invoices/%s_%s", GenerateUniqueFilename(), filepath.Base(fileName))

	switch GetStorageProvider() {
	case StorageProviderGCS:
		if err := saveToGCS(ctx, objectName, data); err != nil {
			return "", err
		}
		return "gs://" + os.Getenv("GCS_BUCKET") + "/" + objectName, nil
	case StorageProviderLocal:
		return saveToLocalDisk(objectName, data)
	default:
		return "", fmt.Errorf("unknown storage provider %q", GetStorageProvider())
	}
}

func saveToGCS(ctx context.Context, objectName string, data []byte) error {
	bucketName := os.Getenv("GCS_BUCKET")
	if bucketName == "" {
		return errors.New("GCS_BUCKET is required")
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Bucket(bucketName).Attrs(ctx); err != nil {
		return fmt.Errorf("gcs bucket %q not found or not accessible: %v", bucketName, err)
	}

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/octet-stream"
	if _, err = wc.Write(data); err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return nil
}

func saveToLocalDisk(objectName string, data []byte) (string, error) {
	baseDir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if baseDir == "" {
		baseDir = "uploads"
	}
	fullPath := filepath.Join(baseDir, objectName)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", err
	}
	return fullPath, nil
}
