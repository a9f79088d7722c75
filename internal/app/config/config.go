package config

import (
	"clinic-service/internal/pkg/utils"

	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		Postgres: Postgres{
			Host:     utils.GetEnvString("POSTGRES_HOST", "localhost"),
			Port:     utils.GetEnvString("POSTGRES_PORT", "5432"),
			Username: utils.GetEnvString("POSTGRES_USERNAME", "postgres"),
			Password: utils.GetEnvString("POSTGRES_PASSWORD", "postgres"),
			DbName:   utils.GetEnvString("POSTGRES_DB_NAME", "clinic"),
			SSLMode:  utils.GetEnvString("POSTGRES_SSL_MODE", "disable"),

			MaxOpenConnections:        utils.GetEnvInt("POSTGRES_MAX_OPEN_CONNECTIONS", 25),
			MaxIdleConnections:        utils.GetEnvInt("POSTGRES_MAX_IDLE_CONNECTIONS", 5),
			ConnectionMaxLifetimeInMs: utils.GetEnvInt("POSTGRES_CONNECTION_MAX_LIFETIME_IN_MS", 300000),
		},
		Redis: Redis{
			Host:     utils.GetEnvString("REDIS_HOST", "localhost"),
			Port:     utils.GetEnvString("REDIS_PORT", "6379"),
			Password: utils.GetEnvString("REDIS_PASSWORD", ""),
		},
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "debug"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILENAME", "logger.log"),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "logger_error.log"),
		},
		SMTP: SMTP{
			Host:        utils.GetEnvString("SMTP_HOST", "localhost"),
			Username:    utils.GetEnvString("SMTP_USERNAME", ""),
			Password:    utils.GetEnvString("SMTP_PASSWORD", ""),
			EmailSender: utils.GetEnvString("SMTP_EMAIL_SENDER", ""),
			Port:        utils.GetEnvInt("SMTP_PORT", 2525),
		},
		RabbitMQ: RabbitMQ{
			Host:     utils.GetEnvString("RABBITMQ_HOST", "localhost"),
			Port:     utils.GetEnvString("RABBITMQ_PORT", "5672"),
			Username: utils.GetEnvString("RABBITMQ_USERNAME", "guest"),
			Password: utils.GetEnvString("RABBITMQ_PASSWORD", "guest"),
		},
		Minio: Minio{
			Host:     utils.GetEnvString("MINIO_HOST", "localhost"),
			Port:     utils.GetEnvString("MINIO_PORT", "9000"),
			Username: utils.GetEnvString("MINIO_USERNAME", ""),
			Password: utils.GetEnvString("MINIO_PASSWORD", ""),
			UseSSL:   utils.GetEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func NewInternalConfig() *InternalConfig {
	return &InternalConfig{
		App: App{
			Env:                        utils.GetEnvString("APP_ENV", "development"),
			Port:                       utils.GetEnvString("APP_PORT", "8080"),
			Version:                    utils.GetEnvString("APP_VERSION", "v1"),
			Address:                    utils.GetEnvString("APP_ADDRESS", "localhost"),
			Timezone:                   utils.GetEnvString("APP_TIMEZONE", "Africa/Lagos"),
			EndpointPrefix:             utils.GetEnvString("APP_ENDPOINT_PREFIX", "api"),
			FrontendDomain:             utils.GetEnvString("APP_FRONTEND_DOMAIN", "http://localhost:3000"),
			MaxRequests:                utils.GetEnvInt("APP_MAX_REQUESTS", 100),
			MaxTimeRequestsPerSeconds:  utils.GetEnvInt("APP_MAX_TIME_REQUESTS_PER_SECONDS", 60),
			ShutdownTimeoutInSeconds:   utils.GetEnvInt("APP_SHUTDOWN_TIMEOUT_IN_SECONDS", 10),
			RequestBodyLimitInMegabyte: utils.GetEnvInt("APP_REQUEST_BODY_LIMIT_IN_MEGABYTE", 2),
			SuperadminAPIKey:           utils.GetEnvString("APP_SUPERADMIN_API_KEY", ""),
			SuperadminAPIKeyRateLimit:  utils.GetEnvInt("APP_SUPERADMIN_API_KEY_RATE_LIMIT", 60),
		},
		Paystack: AppPaystack{
			BaseUrl:                 utils.GetEnvString("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			SecretKey:               utils.GetEnvString("PAYSTACK_SECRET_KEY", ""),
			RequestTimeoutInSeconds: utils.GetEnvInt("PAYSTACK_REQUEST_TIMEOUT_IN_SECONDS", 15),
		},
		Flutterwave: AppFlutterwave{
			BaseUrl:                 utils.GetEnvString("FLUTTERWAVE_BASE_URL", "https://api.flutterwave.com"),
			SecretKey:               utils.GetEnvString("FLUTTERWAVE_SECRET_KEY", ""),
			SecretHash:              utils.GetEnvString("FLUTTERWAVE_SECRET_HASH", ""),
			RequestTimeoutInSeconds: utils.GetEnvInt("FLUTTERWAVE_REQUEST_TIMEOUT_IN_SECONDS", 15),
		},
		Cron: AppCron{
			Secret:                      utils.GetEnvString("CRON_SECRET", ""),
			WorkerEnabled:               utils.GetEnvBool("CRON_WORKER_ENABLED", true),
			SweepCronSpec:               utils.GetEnvString("CRON_SWEEP_SPEC", "@every 15m"),
			SweepLockTTLInSeconds:       utils.GetEnvInt("CRON_SWEEP_LOCK_TTL_IN_SECONDS", 300),
			SweepBatchSize:              utils.GetEnvInt("CRON_SWEEP_BATCH_SIZE", 200),
			PendingGraceWindowInMinutes: utils.GetEnvInt("CRON_PENDING_GRACE_WINDOW_IN_MINUTES", 60),
			VerifyRatePerSecond:         utils.GetEnvFloat("CRON_VERIFY_RATE_PER_SECOND", 5),
			VerifyBurst:                 utils.GetEnvInt("CRON_VERIFY_BURST", 1),
		},
		Mailer: AppMailer{
			EmailSender:         utils.GetEnvString("MAILER_EMAIL_SENDER", "no-reply@clinic.local"),
			RabbitMQMailerQueue: utils.GetEnvString("MAILER_RABBITMQ_QUEUE", "clinic.mailer"),
			WorkerEnabled:       utils.GetEnvBool("MAILER_WORKER_ENABLED", true),
		},
		Archive: AppArchive{
			Enabled:    utils.GetEnvBool("WEBHOOK_ARCHIVE_ENABLED", false),
			BucketName: utils.GetEnvString("WEBHOOK_ARCHIVE_BUCKET_NAME", "payment-webhooks"),
		},
	}
}
