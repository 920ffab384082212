package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/easy-dataset/easy-dataset/pkg/register"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ChunkStore = NewChunkStore(provider)
	})
}

// ChunkStore 文本分块
type ChunkStore struct {
	CommonFields
}

func NewChunkStore(provider SqlProviderAchieve) *ChunkStore {
	repo := &ChunkStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CHUNK)
	repo.SetAllColumns("id", "project_id", "file_id", "file_name", "name", "content", "summary", "size", "created_at")
	return repo
}

func (s *ChunkStore) Create(ctx context.Context, data types.Chunk) error {
	return s.BatchCreate(ctx, []types.Chunk{data})
}

// BatchCreate 批量写入分块，单条 INSERT 完成
func (s *ChunkStore) BatchCreate(ctx context.Context, data []types.Chunk) error {
	if len(data) == 0 {
		return nil
	}

	now := time.Now().Unix()
	query := sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...)
	for _, item := range data {
		if item.CreatedAt == 0 {
			item.CreatedAt = now
		}
		query = query.Values(item.ID, item.ProjectID, item.FileID, item.FileName, item.Name, item.Content, item.Summary, item.Size, item.CreatedAt)
	}

	_, err := s.exec(ctx, query)
	return err
}

func (s *ChunkStore) Get(ctx context.Context, projectID, id string) (*types.Chunk, error) {
	var res types.Chunk
	err := s.get(ctx, &res, sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"project_id": projectID, "id": id}))
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ChunkStore) GetByName(ctx context.Context, projectID, name string) (*types.Chunk, error) {
	var res types.Chunk
	err := s.get(ctx, &res, sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID, "name": name}).
		Limit(1))
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *ChunkStore) List(ctx context.Context, opts types.ListChunkOptions) ([]types.Chunk, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"project_id": opts.ProjectID})
	if opts.FileID != "" {
		query = query.Where(sq.Eq{"file_id": opts.FileID})
	}
	if len(opts.ChunkIDs) > 0 {
		query = query.Where(sq.Eq{"id": opts.ChunkIDs})
	}

	var res []types.Chunk
	if err := s.list(ctx, &res, query.OrderBy("created_at ASC", "name ASC")); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ChunkStore) DeleteByFile(ctx context.Context, projectID, fileID string) error {
	_, err := s.exec(ctx, sq.Delete(s.GetTable()).Where(sq.Eq{"project_id": projectID, "file_id": fileID}))
	return err
}
