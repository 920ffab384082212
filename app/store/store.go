package store

import (
	"context"

	"github.com/easy-dataset/easy-dataset/pkg/sqlstore"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

type ProjectStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Project) error
	GetProject(ctx context.Context, id string) (*types.Project, error)
	Update(ctx context.Context, data types.Project) error
	ListProjects(ctx context.Context) ([]types.Project, error)
}

type ModelConfigStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.ModelConfig) error
	Get(ctx context.Context, projectID, id string) (*types.ModelConfig, error)
	List(ctx context.Context, projectID string) ([]types.ModelConfig, error)
}

// TaskStore 任务表，所有进度与终态写入都带 status = running 条件，返回值表示是否真正写入
type TaskStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Task) error
	GetTask(ctx context.Context, projectID, id string) (*types.Task, error)
	ListTasks(ctx context.Context, opts types.ListTaskOptions, page, pageSize uint64) ([]types.Task, error)
	Total(ctx context.Context, opts types.ListTaskOptions) (int64, error)
	UpdateProgress(ctx context.Context, id string, data types.TaskProgressUpdate) (bool, error)
	Finish(ctx context.Context, id string, status types.TaskStatus, data types.TaskProgressUpdate) (bool, error)
	UpdateStatus(ctx context.Context, projectID, id string, status types.TaskStatus) (bool, error)
	ListStale(ctx context.Context, updatedBefore int64) ([]types.Task, error)
}

type UploadFileStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.UploadFile) error
	Get(ctx context.Context, projectID, id string) (*types.UploadFile, error)
	List(ctx context.Context, opts types.ListUploadFileOptions) ([]types.UploadFile, error)
}

type ChunkStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Chunk) error
	BatchCreate(ctx context.Context, data []types.Chunk) error
	Get(ctx context.Context, projectID, id string) (*types.Chunk, error)
	GetByName(ctx context.Context, projectID, name string) (*types.Chunk, error)
	List(ctx context.Context, opts types.ListChunkOptions) ([]types.Chunk, error)
	DeleteByFile(ctx context.Context, projectID, fileID string) error
}

type TagStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Tag) error
	BatchCreate(ctx context.Context, data []types.Tag) error
	List(ctx context.Context, projectID string) ([]types.Tag, error)
	ListByParent(ctx context.Context, projectID, parentID string) ([]types.Tag, error)
	DeleteAll(ctx context.Context, projectID string) error
}

type QuestionStore interface {
	sqlstore.SqlCommons
	BatchCreate(ctx context.Context, data []types.Question) error
	Get(ctx context.Context, projectID, id string) (*types.Question, error)
	List(ctx context.Context, opts types.ListQuestionOptions) ([]types.Question, error)
	SetAnswered(ctx context.Context, projectID, id string, answered bool) error
}

type DatasetStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Dataset) error
	List(ctx context.Context, projectID string, page, pageSize uint64) ([]types.Dataset, error)
}

type GaPairStore interface {
	sqlstore.SqlCommons
	List(ctx context.Context, projectID, fileID string) ([]types.GaPair, error)
	// FilesWithPairs 返回已经生成过 GA 对的文件
	FilesWithPairs(ctx context.Context, projectID string, fileIDs []string) ([]string, error)
	Replace(ctx context.Context, projectID, fileID string, pairs []types.GaPair) error
	SetActive(ctx context.Context, projectID, fileID, id string, active bool) error
}
