package main

import (
	"context"
	"log"

	"gorm.io/gorm"

	"github.com/QRui6/urban-inspection-rag/internal/bootstrap"
	"github.com/QRui6/urban-inspection-rag/internal/config"
	"github.com/QRui6/urban-inspection-rag/internal/server"
	"github.com/QRui6/urban-inspection-rag/internal/tracer"
	"github.com/QRui6/urban-inspection-rag/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database (the bolt backend needs no SQL connection)
	var gormDB *gorm.DB
	if cfg.Database.VectorBackend != "bolt" {
		var err error
		gormDB, err = database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Indexer Service...")
		if err := container.IndexerService.Consume(context.Background()); err != nil {
			log.Printf("Background Indexer Error: %v", err)
		}
	}()

	// The queue transport is in-process, so the worker runs alongside the
	// API in queued mode.
	if container.JobWorker != nil {
		go func() {
			log.Println("Background: Starting Job Worker...")
			if err := container.JobWorker.Run(context.Background()); err != nil {
				log.Printf("Background Worker Error: %v", err)
			}
		}()
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
