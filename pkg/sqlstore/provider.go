package sqlstore

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

type SqlCommons interface {
	GetTable(...interface{}) string
}

type ConnectConfig interface {
	FormatDSN() string
}

type SqlProvider struct {
	master   *sqlx.DB
	replicas []*sqlx.DB
	dbname   string
}

type TransactionKey struct{}

func (s *SqlProvider) GetTxFromCtx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(TransactionKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}

func (s *SqlProvider) GetMaster() *sqlx.DB {
	return s.master
}

func (s *SqlProvider) GetReplica() *sqlx.DB {
	return s.replicas[utils.Random(0, len(s.replicas)-1)]
}

// Transaction 嵌套调用时复用外层事务
func (s *SqlProvider) Transaction(ctx context.Context, next func(ctx context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if s.GetTxFromCtx(ctx) != nil {
		return next(ctx)
	}

	tx, err := s.GetMaster().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Transaction rollbacked", slog.Any("recover", r))
			_ = tx.Rollback()
			panic(r)
		}
		if err != nil {
			slog.Error("Transaction rollbacked", slog.String("error", err.Error()))
			_ = tx.Rollback()
		}
	}()

	if err = next(context.WithValue(ctx, TransactionKey{}, tx)); err != nil {
		return err
	}

	return tx.Commit()
}

func MustSetupProvider(m ConnectConfig, s ...ConnectConfig) *SqlProvider {
	master := sqlx.MustOpen("postgres", m.FormatDSN())

	var replicas []*sqlx.DB
	for _, v := range s {
		replicas = append(replicas, sqlx.MustOpen("postgres", v.FormatDSN()))
	}

	return NewProvider(master, replicas...)
}

// NewProvider wraps already opened connections, replicas default to the master.
func NewProvider(master *sqlx.DB, replicas ...*sqlx.DB) *SqlProvider {
	if len(replicas) == 0 {
		replicas = []*sqlx.DB{master}
	}
	return &SqlProvider{
		master:   master,
		replicas: replicas,
	}
}

func (s *SqlProvider) GetDBName() (string, error) {
	if s.dbname == "" {
		var dbName string
		if err := s.GetMaster().QueryRow("SELECT current_database()").Scan(&dbName); err != nil {
			return "", err
		}
		s.dbname = dbName
	}

	return s.dbname, nil
}

func (s *SqlProvider) Close() error {
	for _, r := range s.replicas {
		if r != s.master {
			_ = r.Close()
		}
	}
	return s.master.Close()
}
