package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-service/internal/app/config"
	"clinic-service/internal/app/delivery/http/controllers"
	"clinic-service/internal/app/delivery/http/middlewares"
	"clinic-service/internal/app/delivery/http/routers"
	"clinic-service/internal/app/drivers/database"
	"clinic-service/internal/app/drivers/logger"
	smtpDriver "clinic-service/internal/app/drivers/mailer"
	"clinic-service/internal/app/drivers/messaging"
	storageDriver "clinic-service/internal/app/drivers/storage"
	"clinic-service/internal/app/services/core/appointments"
	"clinic-service/internal/app/services/core/notifications"
	"clinic-service/internal/app/services/core/payments"
	"clinic-service/internal/app/services/shared/locker"
	"clinic-service/internal/app/services/shared/mailer"
	"clinic-service/internal/app/services/shared/payment_gateway"
	"clinic-service/internal/app/services/shared/redis"
	"clinic-service/internal/app/services/shared/smtp"
	"clinic-service/internal/app/services/shared/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Version sets the default build version
var Version = "develop"

// Tag sets the default latest commit tag
var Tag = "0.0.1-rc"

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	zapLogger := logger.NewZapLogger(driverConfig, internalConfig)
	zapLogger.Info("Starting clinic service",
		zap.String("version", Version),
		zap.String("tag", Tag),
	)

	location, err := time.LoadLocation(internalConfig.App.Timezone)
	if err != nil {
		log.Fatalf("Error loading location: %v", err)
	}
	time.Local = location

	ctx := context.Background()
	postgresDB := database.NewPostgresDB(ctx, driverConfig)
	redisClient := database.NewRedisClient(ctx, driverConfig)
	rabbitMQ := messaging.NewRabbitMQ(driverConfig)
	chiRouter := chi.NewRouter()

	bootstrap := &config.Bootstrap{
		Router:         chiRouter,
		Postgres:       postgresDB,
		Redis:          redisClient,
		Logger:         zapLogger,
		RabbitMQ:       rabbitMQ,
		DriverConfig:   driverConfig,
		InternalConfig: internalConfig,
	}
	if internalConfig.Archive.Enabled {
		bootstrap.Minio = storageDriver.NewMinio(driverConfig)
	}

	if err := bootstrapingTheApp(ctx, bootstrap); err != nil {
		log.Fatalf("Error bootstrapping the app: %v", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", internalConfig.App.Port),
		Handler:           chiRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", server.Addr)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	log.Println("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeoutInSeconds),
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := bootstrap.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server exiting")
}

func bootstrapingTheApp(ctx context.Context, bootstrap *config.Bootstrap) error {
	internalConfig := bootstrap.InternalConfig
	log := bootstrap.Logger

	// Redis
	redisRepository := redis.NewRedisRepository(bootstrap.Redis)
	lockerService := locker.NewLockService(redisRepository, log)

	// Mailer
	mailerQueue := internalConfig.Mailer.RabbitMQMailerQueue
	if err := messaging.DeclareDurableQueue(bootstrap.RabbitMQ, mailerQueue); err != nil {
		return err
	}
	mailerService, err := mailer.NewMailerService(bootstrap.RabbitMQ, mailerQueue, log)
	if err != nil {
		return err
	}

	// Webhook archive
	var webhookArchive storage.WebhookArchive
	if bootstrap.Minio != nil {
		if err := storageDriver.EnsureBucket(ctx, bootstrap.Minio, internalConfig.Archive.BucketName); err != nil {
			return err
		}
		webhookArchive = storage.NewMinioWebhookArchive(bootstrap.Minio, internalConfig.Archive.BucketName, log)
	}

	// Payments
	paymentRepository := payments.NewPaymentPostgresRepository(bootstrap.Postgres)
	appointmentRepository := appointments.NewAppointmentPostgresRepository(bootstrap.Postgres)
	paymentUsecase := payments.NewPaymentUsecase(payments.PaymentUsecaseDeps{
		PaymentRepository:     paymentRepository,
		AppointmentRepository: appointmentRepository,
		Gateways:              payment_gateway.NewPaymentGateways(internalConfig, log),
		MailerService:         mailerService,
		WebhookArchive:        webhookArchive,
		InternalConfig:        internalConfig,
		Log:                   log,
	})

	// Background workers
	if internalConfig.Cron.WorkerEnabled {
		sweepWorker := payments.NewSweepWorker(log, internalConfig, lockerService, paymentUsecase)
		sweepWorker.Start(context.Background())
		bootstrap.SweepWorkerStop = sweepWorker.Stop
	}

	if internalConfig.Mailer.WorkerEnabled {
		smtpService := smtp.NewSmtpService(smtpDriver.NewSMTPClient(bootstrap.DriverConfig))
		notificationWorker := notifications.NewWorker(log, internalConfig, smtpService)
		if err := notificationWorker.Start(context.Background(), bootstrap.RabbitMQ); err != nil {
			return err
		}
		bootstrap.WorkerStop = notificationWorker.Stop
	}

	// HTTP
	middlewares := middlewares.NewMiddlewares(log, internalConfig)
	paymentController := controllers.NewPaymentController(log, paymentUsecase)
	webhookController := controllers.NewWebhookController(log, paymentUsecase)
	cronController := controllers.NewCronController(log, paymentUsecase)

	routers.SetupRoutes(bootstrap.Router, internalConfig, middlewares, paymentController, webhookController, cronController)
	return nil
}
