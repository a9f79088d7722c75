package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"clinic-service/internal/app/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(ctx context.Context, driverConfig *config.DriverConfig) *sql.DB {
	connectionString := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		driverConfig.Postgres.Host,
		driverConfig.Postgres.Port,
		driverConfig.Postgres.Username,
		driverConfig.Postgres.Password,
		driverConfig.Postgres.DbName,
		driverConfig.Postgres.SSLMode,
	)

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		log.Fatalf("Failed to open postgres database connection: %s", err.Error())
	}

	db.SetMaxOpenConns(driverConfig.Postgres.MaxOpenConnections)
	db.SetMaxIdleConns(driverConfig.Postgres.MaxIdleConnections)
	db.SetConnMaxLifetime(time.Duration(driverConfig.Postgres.ConnectionMaxLifetimeInMs) * time.Millisecond)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to connect to postgres database: %s", err.Error())
	}

	log.Println("Successfully connected to postgres database")
	return db
}
