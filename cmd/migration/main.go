package main

import (
	"context"
	"flag"
	"log"

	"clinic-service/internal/app/config"
	"clinic-service/internal/app/drivers/database"
	"clinic-service/internal/migration"
)

func main() {
	direction := flag.String("direction", "up", "up, down or status")
	max := flag.Int("max", 1, "maximum migrations to roll back when direction is down, 0 for all")
	flag.Parse()

	driverConfig := config.NewDriverConfig()
	db := database.NewPostgresDB(context.Background(), driverConfig)
	defer db.Close()

	switch *direction {
	case "up":
		n, err := migration.Up(db)
		if err != nil {
			log.Fatalf("Error executing migration: %v", err)
		}
		log.Printf("Applied %d migrations!\n", n)
	case "down":
		n, err := migration.Down(db, *max)
		if err != nil {
			log.Fatalf("Error rolling back migration: %v", err)
		}
		log.Printf("Rolled back %d migrations!\n", n)
	case "status":
		pending, err := migration.Pending(db)
		if err != nil {
			log.Fatalf("Error planning migration: %v", err)
		}
		log.Printf("%d pending migrations: %v\n", len(pending), pending)
	default:
		log.Fatalf("Unknown direction %q", *direction)
	}
}
