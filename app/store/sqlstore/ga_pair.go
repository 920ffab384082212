package sqlstore

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/easy-dataset/easy-dataset/pkg/register"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.GaPairStore = NewGaPairStore(provider)
	})
}

type transactor interface {
	Transaction(ctx context.Context, next func(ctx context.Context) error) error
}

// GaPairStore 文件级的 Genre-Audience 组合
type GaPairStore struct {
	CommonFields
	tx transactor
}

func NewGaPairStore(provider *Provider) *GaPairStore {
	repo := &GaPairStore{tx: provider}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_GA_PAIR)
	repo.SetAllColumns("id", "project_id", "file_id", "pair_number", "genre_title", "genre_desc",
		"audience_title", "audience_desc", "is_active", "created_at", "updated_at")
	return repo
}

func (s *GaPairStore) List(ctx context.Context, projectID, fileID string) ([]types.GaPair, error) {
	var res []types.GaPair
	err := s.list(ctx, &res, sq.Select(s.GetAllColumns()...).From(s.GetTable()).
		Where(sq.Eq{"project_id": projectID, "file_id": fileID}).
		OrderBy("pair_number ASC"))
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *GaPairStore) FilesWithPairs(ctx context.Context, projectID string, fileIDs []string) ([]string, error) {
	query := sq.Select("DISTINCT file_id").From(s.GetTable()).Where(sq.Eq{"project_id": projectID})
	if len(fileIDs) > 0 {
		query = query.Where(sq.Eq{"file_id": fileIDs})
	}

	var res []string
	if err := s.list(ctx, &res, query); err != nil {
		return nil, err
	}
	return res, nil
}

// Replace 在同一事务内删除旧记录并写入新的组合
func (s *GaPairStore) Replace(ctx context.Context, projectID, fileID string, pairs []types.GaPair) error {
	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.exec(ctx, sq.Delete(s.GetTable()).Where(sq.Eq{"project_id": projectID, "file_id": fileID})); err != nil {
			return err
		}
		if len(pairs) == 0 {
			return nil
		}

		now := time.Now().Unix()
		query := sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...)
		for _, item := range pairs {
			if item.CreatedAt == 0 {
				item.CreatedAt = now
			}
			query = query.Values(item.ID, projectID, fileID, item.PairNumber, item.GenreTitle, item.GenreDesc,
				item.AudienceTitle, item.AudienceDesc, item.IsActive, item.CreatedAt, now)
		}
		_, err := s.exec(ctx, query)
		return err
	})
}

func (s *GaPairStore) SetActive(ctx context.Context, projectID, fileID, id string, active bool) error {
	affected, err := s.exec(ctx, sq.Update(s.GetTable()).
		SetMap(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now().Unix(),
		}).
		Where(sq.Eq{"project_id": projectID, "file_id": fileID, "id": id}))
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
