package sqlstore

import "embed"

// CreateTableFiles 建表文件，按文件名顺序执行一次
//
//go:embed *.sql
var CreateTableFiles embed.FS
