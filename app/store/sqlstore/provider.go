package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/easy-dataset/easy-dataset/app/store"
	"github.com/easy-dataset/easy-dataset/pkg/register"
	"github.com/easy-dataset/easy-dataset/pkg/sqlstore"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

func init() {
	sq.StatementBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

var provider = &Provider{
	stores: &Stores{},
}

func GetProvider() *Provider {
	return provider
}

type Provider struct {
	*sqlstore.SqlProvider
	stores *Stores
}

type Stores struct {
	store.ProjectStore
	store.ModelConfigStore
	store.TaskStore
	store.UploadFileStore
	store.ChunkStore
	store.TagStore
	store.QuestionStore
	store.DatasetStore
	store.GaPairStore
}

type RegisterKey struct{}

func MustSetup(m sqlstore.ConnectConfig, s ...sqlstore.ConnectConfig) func() *Provider {
	provider.SqlProvider = sqlstore.MustSetupProvider(m, s...)
	setupStores(provider)

	return func() *Provider {
		return provider
	}
}

// NewWithProvider 使用已建立的连接创建独立的 Provider，测试中使用
func NewWithProvider(p *sqlstore.SqlProvider) *Provider {
	np := &Provider{SqlProvider: p, stores: &Stores{}}
	setupStores(np)
	return np
}

func setupStores(p *Provider) {
	for _, f := range register.ResolveFuncHandlers[*Provider](RegisterKey{}) {
		f(p)
	}
	val := reflect.ValueOf(p.stores).Elem()
	for i := 0; i < val.NumField(); i++ {
		if val.Field(i).IsNil() {
			panic(fmt.Sprintf("sqlstore: %s is not registered", val.Type().Field(i).Name))
		}
	}
}

// Install 按文件名顺序执行尚未执行过的建表文件
func (p *Provider) Install() error {
	if err := p.ensureMigrationTable(); err != nil {
		return err
	}

	files, err := CreateTableFiles.ReadDir(".")
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		if executed, err := p.isFileExecuted(file.Name()); err != nil {
			return err
		} else if executed {
			continue
		}

		raw, err := CreateTableFiles.ReadFile(file.Name())
		if err != nil {
			return err
		}

		err = p.Transaction(context.Background(), func(ctx context.Context) error {
			tx := p.GetTxFromCtx(ctx)
			if _, err := tx.Exec(string(raw)); err != nil {
				return fmt.Errorf("failed to execute %s: %w", file.Name(), err)
			}
			_, err := tx.Exec(
				"INSERT INTO "+types.TABLE_PREFIX+"schema_migrations (filename, executed_at) VALUES ($1, $2) ON CONFLICT (filename) DO NOTHING",
				file.Name(), time.Now().Unix())
			return err
		})
		if err != nil {
			return err
		}
		slog.Info("sql file executed", slog.String("file", file.Name()))
	}
	return nil
}

func (p *Provider) ensureMigrationTable() error {
	createTableSQL := `
CREATE TABLE IF NOT EXISTS ` + types.TABLE_PREFIX + `schema_migrations (
    filename VARCHAR(255) PRIMARY KEY,
    executed_at BIGINT NOT NULL
);`
	_, err := p.SqlProvider.GetMaster().Exec(createTableSQL)
	return err
}

func (p *Provider) isFileExecuted(filename string) (bool, error) {
	var count int
	err := p.SqlProvider.GetMaster().Get(&count,
		"SELECT COUNT(*) FROM "+types.TABLE_PREFIX+"schema_migrations WHERE filename = $1", filename)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *Provider) ProjectStore() store.ProjectStore {
	return p.stores.ProjectStore
}

func (p *Provider) ModelConfigStore() store.ModelConfigStore {
	return p.stores.ModelConfigStore
}

func (p *Provider) TaskStore() store.TaskStore {
	return p.stores.TaskStore
}

func (p *Provider) UploadFileStore() store.UploadFileStore {
	return p.stores.UploadFileStore
}

func (p *Provider) ChunkStore() store.ChunkStore {
	return p.stores.ChunkStore
}

func (p *Provider) TagStore() store.TagStore {
	return p.stores.TagStore
}

func (p *Provider) QuestionStore() store.QuestionStore {
	return p.stores.QuestionStore
}

func (p *Provider) DatasetStore() store.DatasetStore {
	return p.stores.DatasetStore
}

func (p *Provider) GaPairStore() store.GaPairStore {
	return p.stores.GaPairStore
}
