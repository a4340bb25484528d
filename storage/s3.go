package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/OlsenSM91/arrange-it/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// NewS3Client erstellt einen S3-Client für einen S3-kompatiblen Endpunkt.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.S3URL,
				SigningRegion:     cfg.S3Region,
				HostnameImmutable: true,
			}, nil
		},
	)
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3Key, cfg.S3Secret, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg), nil
}

// ArchiveMirror spiegelt fertige Batch-Archive in einen Bucket.
type ArchiveMirror struct {
	client  *s3.Client
	bucket  string
	baseURL string
	logger  *zap.Logger
}

func NewArchiveMirror(client *s3.Client, cfg *config.Config, logger *zap.Logger) *ArchiveMirror {
	return &ArchiveMirror{client: client, bucket: cfg.S3Bucket, baseURL: cfg.S3URL, logger: logger}
}

// Upload lädt die Datei unter path als key hoch und gibt den Link zurück.
func (m *ArchiveMirror) Upload(ctx context.Context, key, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", m.baseURL, m.bucket, key), nil
}

// Rotate löscht alle bis auf die keep neuesten Archive im Bucket.
func (m *ArchiveMirror) Rotate(ctx context.Context, keep int) (int, error) {
	var objects []types.Object
	paginator := s3.NewListObjectsV2Paginator(m.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		objects = append(objects, page.Contents...)
	}

	expired := expiredKeys(objects, keep)
	if len(expired) == 0 {
		m.logger.Info("No archive rotation needed", zap.Int("archives", len(objects)), zap.Int("keep", keep))
		return 0, nil
	}

	deleted := 0
	for _, key := range expired {
		m.logger.Info("Deleting old archive", zap.String("key", key))
		_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			m.logger.Error("Failed to delete archive", zap.String("key", key), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}

// expiredKeys sortiert neueste zuerst und liefert alles jenseits von keep.
func expiredKeys(objects []types.Object, keep int) []string {
	if keep < 0 {
		keep = 0
	}
	if len(objects) <= keep {
		return nil
	}
	sorted := make([]types.Object, len(objects))
	copy(sorted, objects)
	sort.SliceStable(sorted, func(i, j int) bool {
		return modTime(sorted[i]).After(modTime(sorted[j]))
	})

	var keys []string
	for _, obj := range sorted[keep:] {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys
}

func modTime(obj types.Object) time.Time {
	if obj.LastModified == nil {
		return time.Time{}
	}
	return *obj.LastModified
}
