package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/joho/godotenv"

	"booking-intelligence/internal/config"
	"booking-intelligence/internal/middleware"
)

func main() {
	fmt.Println("Setting up Booking Intelligence development environment")

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	if err := checkDocker(); err != nil {
		fmt.Printf("Docker issue detected: %v\n", err)
		fmt.Println("You can still run with STORAGE_DRIVER=memory KAFKA_MOCK=true")
	} else {
		fmt.Println("Docker is running, starting mysql, kafka and redis...")
		cmd := exec.Command("docker-compose", "up", "-d", "mysql", "kafka", "redis")
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			fmt.Printf("Failed to start services: %v\n", err)
		} else {
			fmt.Println("Services started successfully")
		}
	}

	if cfg.Auth.JWTSecret == "" {
		fmt.Println("JWT_SECRET is not set; skipping dev tokens")
		return
	}
	for _, u := range []struct{ id, role string }{
		{"dev-admin", middleware.RoleAdmin},
		{"dev-guest", middleware.RoleGuest},
	} {
		token, err := middleware.GenerateToken(cfg.Auth.JWTSecret, cfg.Auth.Issuer, u.id, u.role, 24*time.Hour)
		if err != nil {
			fmt.Printf("Failed to sign token for %s: %v\n", u.id, err)
			continue
		}
		fmt.Printf("%s (%s):\n  Bearer %s\n", u.id, u.role, token)
	}
}

func checkDocker() error {
	cmd := exec.Command("docker", "info")
	return cmd.Run()
}
