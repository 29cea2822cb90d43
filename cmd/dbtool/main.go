package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"route-planner-service/internal/adapters/repositories"
	"route-planner-service/internal/config"
	"route-planner-service/internal/platform/db"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	driver := flag.String("driver", config.Get("DB_DRIVER", db.DriverSQLite), "database/sql driver: pgx or sqlite")
	dsn := flag.String("dsn", "", "data source name (defaults to DATABASE_URL or DB_PATH)")
	seedPath := flag.String("seed", config.Get("SEED_PATH", "data/seeds/orders.json"), "orders seed file; empty skips seeding")
	flag.Parse()

	if *driver == "postgres" {
		*driver = db.DriverPostgres
	}
	if *dsn == "" {
		if *driver == db.DriverPostgres {
			*dsn = config.Get("DATABASE_URL", "")
		} else {
			*dsn = config.Get("DB_PATH", "data/app.db")
		}
	}
	if *dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	dialect, err := repositories.DialectFor(*driver)
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(*driver, *dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := initAndSeed(ctx, conn, dialect, *seedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect repositories.Dialect, seedPath string) error {
	log.Printf("Initializing database schema dialect=%s...", dialect)
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return err
	}
	log.Println("Schema ready.")

	if seedPath == "" {
		return nil
	}

	log.Printf("Seeding orders from %s...", seedPath)
	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return err
	}
	log.Println("Seeding complete.")

	return nil
}
