// Command seed loads the instance pricing catalogue from a YAML file.
//
//	go run ./cmd/seed -file seeds/instances.yaml
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/iliyamo/cloudlab/internal/catalog"
	"github.com/iliyamo/cloudlab/internal/config"
	"github.com/iliyamo/cloudlab/internal/database"
)

func main() {
	path := flag.String("file", "seeds/instances.yaml", "catalogue YAML file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	f, err := catalog.Load(*path)
	if err != nil {
		log.Fatalf("load %s: %v", *path, err)
	}

	sqlDB, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, sqlDB); err != nil {
		log.Fatalf("schema: %v", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		log.Fatalf("gorm: %v", err)
	}
	if err := catalog.Replace(db.WithContext(ctx), f); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seeded %d ec2 and %d azure instance types", len(f.EC2), len(f.Azure))
}
