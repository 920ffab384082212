package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/easy-dataset/easy-dataset/pkg/types"
)

func ErrorSqlBuild(err error) error {
	return fmt.Errorf("failed to build sql query, %w", err)
}

type SqlProviderAchieve interface {
	GetMaster() *sqlx.DB
	GetReplica() *sqlx.DB
	GetTxFromCtx(ctx context.Context) *sqlx.Tx
}

// CommonFields store 基础设置
type CommonFields struct {
	table      string
	provider   SqlProviderAchieve
	allColumns []string
}

func (c *CommonFields) GetTable(key ...interface{}) string {
	return c.table
}

func (c *CommonFields) SetAllColumns(str ...string) {
	c.allColumns = str
}

func (c *CommonFields) GetAllColumns() []string {
	return c.allColumns
}

func (c *CommonFields) SetTable(table types.TableName) {
	c.table = table.Name()
}

func (c *CommonFields) SetProvider(p SqlProviderAchieve) {
	c.provider = p
}

type Master interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// GetMaster 上下文中存在事务时使用事务
func (c *CommonFields) GetMaster(ctx context.Context) Master {
	if ctx == nil {
		return c.provider.GetMaster()
	}
	if tx := c.provider.GetTxFromCtx(ctx); tx != nil {
		return tx
	}
	return &dbWithContext{db: c.provider.GetMaster(), ctx: ctx}
}

type Replica interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
}

type dbWithContext struct {
	db  *sqlx.DB
	ctx context.Context
}

func (d *dbWithContext) Get(dest interface{}, query string, args ...interface{}) error {
	return d.db.GetContext(d.ctx, dest, query, args...)
}

func (d *dbWithContext) Select(dest interface{}, query string, args ...interface{}) error {
	return d.db.SelectContext(d.ctx, dest, query, args...)
}

func (d *dbWithContext) Exec(query string, args ...interface{}) (sql.Result, error) {
	return d.db.ExecContext(d.ctx, query, args...)
}

func (c *CommonFields) GetReplica(ctx context.Context) Replica {
	if ctx == nil {
		return c.provider.GetReplica()
	}
	if tx := c.provider.GetTxFromCtx(ctx); tx != nil {
		return tx
	}
	return &dbWithContext{db: c.provider.GetReplica(), ctx: ctx}
}

// exec 构建并执行写语句
func (c *CommonFields) exec(ctx context.Context, query sq.Sqlizer) (int64, error) {
	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}
	res, err := c.GetMaster(ctx).Exec(queryString, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *CommonFields) get(ctx context.Context, dest interface{}, query sq.Sqlizer) error {
	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}
	return c.GetReplica(ctx).Get(dest, queryString, args...)
}

func (c *CommonFields) list(ctx context.Context, dest interface{}, query sq.Sqlizer) error {
	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}
	return c.GetReplica(ctx).Select(dest, queryString, args...)
}

func paginate(query sq.SelectBuilder, page, pageSize uint64) sq.SelectBuilder {
	if page == types.NO_PAGINATION || pageSize == 0 {
		return query
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
