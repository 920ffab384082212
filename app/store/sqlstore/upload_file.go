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
		provider.stores.UploadFileStore = NewUploadFileStore(provider)
	})
}

type UploadFileStore struct {
	CommonFields
}

func NewUploadFileStore(provider SqlProviderAchieve) *UploadFileStore {
	repo := &UploadFileStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_UPLOAD_FILE)
	repo.SetAllColumns("id", "project_id", "file_name", "file_ext", "path", "size", "md5", "created_at")
	return repo
}

func (s *UploadFileStore) Create(ctx context.Context, data types.UploadFile) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	_, err := s.exec(ctx, sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.ProjectID, data.FileName, data.FileExt, data.Path, data.Size, data.MD5, data.CreatedAt))
	return err
}

func (s *UploadFileStore) Get(ctx context.Context, projectID, id string) (*types.UploadFile, error) {
	var res types.UploadFile
	err := s.get(ctx, &res, sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"project_id": projectID, "id": id}))
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *UploadFileStore) List(ctx context.Context, opts types.ListUploadFileOptions) ([]types.UploadFile, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"project_id": opts.ProjectID})
	if len(opts.FileIDs) > 0 {
		query = query.Where(sq.Eq{"id": opts.FileIDs})
	}
	if opts.FileName != "" {
		query = query.Where(sq.Eq{"file_name": opts.FileName})
	}

	var res []types.UploadFile
	if err := s.list(ctx, &res, query.OrderBy("created_at ASC")); err != nil {
		return nil, err
	}
	return res, nil
}
