package config

import "time"

type InternalConfig struct {
	App         App            `mapstructure:"app"`
	Paystack    AppPaystack    `mapstructure:"paystack"`
	Flutterwave AppFlutterwave `mapstructure:"flutterwave"`
	Cron        AppCron        `mapstructure:"cron"`
	Mailer      AppMailer      `mapstructure:"mailer"`
	Archive     AppArchive     `mapstructure:"archive"`
}

type App struct {
	Env                        string `mapstructure:"env"`
	Port                       string `mapstructure:"port"`
	Version                    string `mapstructure:"version"`
	Address                    string `mapstructure:"address"`
	Timezone                   string `mapstructure:"timezone"`
	EndpointPrefix             string `mapstructure:"endpoint_prefix"`
	FrontendDomain             string `mapstructure:"frontend_domain"`
	MaxRequests                int    `mapstructure:"max_requests"`
	MaxTimeRequestsPerSeconds  int    `mapstructure:"max_time_requests_per_seconds"`
	ShutdownTimeoutInSeconds   int    `mapstructure:"shutdown_timeout_in_seconds"`
	RequestBodyLimitInMegabyte int    `mapstructure:"request_body_limit_in_megabyte"`
	SuperadminAPIKey           string `mapstructure:"superadmin_api_key"`
	SuperadminAPIKeyRateLimit  int    `mapstructure:"superadmin_api_key_rate_limit"`
}

type AppPaystack struct {
	BaseUrl                 string `mapstructure:"base_url"`
	SecretKey               string `mapstructure:"secret_key"`
	RequestTimeoutInSeconds int    `mapstructure:"request_timeout_in_seconds"`
}

type AppFlutterwave struct {
	BaseUrl                 string `mapstructure:"base_url"`
	SecretKey               string `mapstructure:"secret_key"`
	SecretHash              string `mapstructure:"secret_hash"`
	RequestTimeoutInSeconds int    `mapstructure:"request_timeout_in_seconds"`
}

type AppCron struct {
	// Secret guards the expiry endpoint. Empty leaves it open.
	Secret                      string  `mapstructure:"secret"`
	WorkerEnabled               bool    `mapstructure:"worker_enabled"`
	SweepCronSpec               string  `mapstructure:"sweep_cron_spec"`
	SweepLockTTLInSeconds       int     `mapstructure:"sweep_lock_ttl_in_seconds"`
	SweepBatchSize              int     `mapstructure:"sweep_batch_size"`
	PendingGraceWindowInMinutes int     `mapstructure:"pending_grace_window_in_minutes"`
	VerifyRatePerSecond         float64 `mapstructure:"verify_rate_per_second"`
	VerifyBurst                 int     `mapstructure:"verify_burst"`
}

func (c AppCron) PendingGraceWindow() time.Duration {
	if c.PendingGraceWindowInMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.PendingGraceWindowInMinutes) * time.Minute
}

type AppMailer struct {
	EmailSender         string `mapstructure:"email_sender"`
	RabbitMQMailerQueue string `mapstructure:"rabbitmq_mailer_queue"`
	WorkerEnabled       bool   `mapstructure:"worker_enabled"`
}

type AppArchive struct {
	Enabled    bool   `mapstructure:"enabled"`
	BucketName string `mapstructure:"bucket_name"`
}
