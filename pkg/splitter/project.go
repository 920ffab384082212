package splitter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/samber/lo"

	"github.com/easy-dataset/easy-dataset/pkg/types"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

type ChunkStore interface {
	DeleteByFile(ctx context.Context, projectID, fileID string) error
	BatchCreate(ctx context.Context, chunks []types.Chunk) error
}

// Transactor 删除旧分块与写入新分块在同一事务
type Transactor interface {
	Transaction(ctx context.Context, next func(ctx context.Context) error) error
}

// ProjectSplitter 切分项目文件并持久化分块，同一文件重复切分会替换旧分块
type ProjectSplitter struct {
	store ChunkStore
	tx    Transactor
}

func NewProjectSplitter(store ChunkStore, tx Transactor) *ProjectSplitter {
	return &ProjectSplitter{store: store, tx: tx}
}

func (s *ProjectSplitter) SplitProjectFile(ctx context.Context, projectID string, file types.TaskFile, markdownPath string, opts Options) (*Result, error) {
	raw, err := os.ReadFile(markdownPath)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	result, err := Split(file.FileName, string(raw), opts)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	chunks := lo.Map(result.Chunks, func(c Chunk, _ int) types.Chunk {
		return types.Chunk{
			ID:        utils.GenUniqIDStr(),
			ProjectID: projectID,
			FileID:    file.FileID,
			FileName:  file.FileName,
			Name:      c.Name,
			Content:   c.Content,
			Summary:   c.Summary,
			Size:      c.Size,
			CreatedAt: now,
		}
	})

	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.store.DeleteByFile(ctx, projectID, file.FileID); err != nil {
			return fmt.Errorf("delete old chunks: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}
		if err := s.store.BatchCreate(ctx, chunks); err != nil {
			return fmt.Errorf("save chunks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("file split finished",
		slog.String("project_id", projectID),
		slog.String("file", file.FileName),
		slog.Int("chunks", result.TotalChunks))
	return result, nil
}
