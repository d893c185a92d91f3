package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-insight-be/internal/entity"
	"pdf-insight-be/internal/model"
	"pdf-insight-be/internal/repository/specification"
	"pdf-insight-be/internal/repository/unitofwork"
	"pdf-insight-be/pkg/database"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	require.NoError(t, gormDB.AutoMigrate(&model.Document{}, &model.DocumentChunk{}))

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.ChunkRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Check Chunk Repository", func(t *testing.T) {
		count, err := uow.ChunkRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Chunk count: %d", count)
	})

	t.Run("Transactional Document Ingest Roundtrip", func(t *testing.T) {
		ctx := context.Background()
		txUow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, txUow.Begin(ctx))
		defer txUow.Rollback()

		docId := uuid.New()
		doc := &entity.Document{
			Id:        docId,
			Title:     "integration-" + docId.String(),
			PageCount: 1,
			Status:    entity.DocumentStatusIngesting,
			CreatedAt: time.Now(),
		}
		require.NoError(t, txUow.DocumentRepository().Create(ctx, doc))

		chunks := []*entity.Chunk{
			{
				Id:         entity.ChunkId(docId, 0),
				DocumentId: docId,
				UnitId:     uuid.NewString(),
				Ordinal:    0,
				Page:       0,
				Modality:   entity.ModalityText,
				Text:       "quarterly revenue grew steadily",
				Quality:    entity.ChunkQualityOK,
				CreatedAt:  time.Now(),
			},
		}
		require.NoError(t, txUow.ChunkRepository().CreateBulk(ctx, chunks, nil))

		found, err := txUow.ChunkRepository().FindAll(ctx, specification.ByDocumentID{DocumentID: docId})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, entity.ChunkId(docId, 0), found[0].Id)
		assert.Equal(t, entity.ModalityText, found[0].Modality)

		// Rolled back by the deferred Rollback; nothing persists.
	})
}
