package storage

import (
	"bytes"
	"context"

	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/utils"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

type minioStorage struct {
	MinioClient *minio.Client
	BucketName  string
	Log         *zap.Logger
}

func NewMinioWebhookArchive(minioClient *minio.Client, bucketName string, logger *zap.Logger) WebhookArchive {
	return &minioStorage{
		MinioClient: minioClient,
		BucketName:  bucketName,
		Log:         logger,
	}
}

func (m *minioStorage) ArchiveWebhook(ctx context.Context, in *ArchiveWebhookInput) (string, error) {
	objectName := utils.GenerateArchiveObjectName(in.Provider, in.PaymentID, in.EventID)

	_, err := m.MinioClient.PutObject(
		ctx,
		m.BucketName,
		objectName,
		bytes.NewReader(in.RawBody),
		int64(len(in.RawBody)),
		minio.PutObjectOptions{
			ContentType: constvars.MIMEApplicationJSON,
			UserMetadata: map[string]string{
				"provider":   in.Provider,
				"payment-id": in.PaymentID,
				"event-id":   in.EventID,
			},
		},
	)
	if err != nil {
		return "", exceptions.ErrMinioCreateObject(err, m.BucketName)
	}

	m.Log.Debug("minioStorage.ArchiveWebhook stored object",
		zap.String(constvars.LoggingRequestIDKey, utils.GetRequestID(ctx)),
		zap.String(constvars.LoggingBucketNameKey, m.BucketName),
		zap.String(constvars.LoggingObjectNameKey, objectName),
	)
	return objectName, nil
}
