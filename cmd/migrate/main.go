package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	"booking-intelligence/internal/config"
	"booking-intelligence/internal/storage"
)

func main() {
	// Command line flags
	envFlag := flag.String("env", "dev", "Environment (dev, test, prod)")
	envFileFlag := flag.String("env-file", "", "Path to .env file")
	migrationFlag := flag.String("migration", "", "Optional extra SQL file to run after the built-in schema")
	flag.Parse()

	loadEnv(*envFlag, *envFileFlag)

	dbConfig := config.Load().Database
	fmt.Printf("Connecting to MySQL at %s:%s as %s\n", dbConfig.Host, dbConfig.Port, dbConfig.Username)

	db, err := sql.Open("mysql", storage.DSN(dbConfig)+"&multiStatements=true")
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	fmt.Println("Connected to database successfully")

	for i, stmt := range storage.Schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("Failed to apply schema statement %d: %v", i+1, err)
		}
	}
	fmt.Printf("Applied %d schema statements\n", len(storage.Schema))

	if *migrationFlag != "" {
		migrationSQL, err := os.ReadFile(*migrationFlag)
		if err != nil {
			log.Fatalf("Failed to read migration file: %v", err)
		}
		fmt.Printf("Executing migration from %s\n", *migrationFlag)
		if _, err := db.Exec(string(migrationSQL)); err != nil {
			log.Fatalf("Failed to execute migration: %v", err)
		}
	}

	fmt.Println("Migration completed successfully")
}

func loadEnv(env string, envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err == nil {
			fmt.Printf("Loaded environment from %s\n", envFile)
			return
		}
	}

	envSpecificFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envSpecificFile); err == nil {
		fmt.Printf("Loaded environment from %s\n", envSpecificFile)
		return
	}

	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded environment from .env")
		return
	}

	fmt.Println("No .env file found, using default or system environment variables")
}
