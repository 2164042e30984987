package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rsvphq/firstaccess/internal/auth"
	"github.com/rsvphq/firstaccess/internal/config"
	"github.com/rsvphq/firstaccess/internal/db"

	log "github.com/sirupsen/logrus"
)

// creates a new admin account, run from the project root on the target host
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	username := flag.String("username", "", "admin username")
	email := flag.String("email", "", "admin email, used for password reset and notifications")
	password := flag.String("password", "", "admin password")
	flag.Parse()

	if *username == "" || *email == "" || *password == "" {
		fmt.Println("username, email and password are required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		TracingEnabled: false,
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	service := auth.NewService(auth.NewRepo(dbPool), auth.NewMemorySessionStore(auth.DefaultSessionTTL))
	admin, err := service.CreateAdmin(ctx, *username, *email, *password)
	if err != nil {
		log.Fatalf("create admin: %s", err)
	}

	fmt.Printf("admin [%s] created, id: %s\n", admin.Username, admin.ID)
}
