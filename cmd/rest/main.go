package main

import (
	"context"
	"log"

	"pdf-insight-be/internal/bootstrap"
	"pdf-insight-be/internal/config"
	"pdf-insight-be/internal/model"
	"pdf-insight-be/internal/server"
	"pdf-insight-be/internal/tracer"
	"pdf-insight-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}
	if err := gormDB.AutoMigrate(&model.Document{}, &model.DocumentChunk{}); err != nil {
		log.Panicf("Unable to migrate schema: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Rebuild in-memory index state from persisted chunks
	if err := container.IngestionService.RebuildIndexes(context.Background()); err != nil {
		log.Printf("Index rebuild error: %v", err)
	}

	// 5. Start Background Services
	// Note: In a larger app, we might use an errgroup or supervisor here
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 6. Initialize Server
	srv := server.New(cfg, container)

	// 7. Run Server
	log.Fatal(srv.Run())
}
