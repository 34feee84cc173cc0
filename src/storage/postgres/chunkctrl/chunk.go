package chunkctrl

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ChunkMetadata is the relational record of one indexed chunk.
type ChunkMetadata struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	DocumentID    int64     `gorm:"not null;index" json:"document_id"`
	ChunkIndex    int       `gorm:"not null" json:"chunk_index"`
	ChunkStrategy string    `gorm:"not null" json:"chunk_strategy"`
	ChunkFilename string    `gorm:"not null" json:"chunk_filename"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (ChunkMetadata) TableName() string {
	return "chunk_metadata"
}

type ChunkService struct {
	db *gorm.DB
}

func NewChunkService(db *gorm.DB) *ChunkService {
	return &ChunkService{
		db: db,
	}
}

// InsertChunks stores all rows in one transaction; either every row is written or none.
func (s *ChunkService) InsertChunks(ctx context.Context, chunks []ChunkMetadata) error {
	if len(chunks) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&chunks).Error
	})
	if err != nil {
		return fmt.Errorf("failed to insert chunk metadata: %w", err)
	}

	return nil
}
