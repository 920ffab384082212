package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "eds_"

const (
	TABLE_PROJECT      = TableName("project")
	TABLE_TASK         = TableName("task")
	TABLE_UPLOAD_FILE  = TableName("upload_file")
	TABLE_CHUNK        = TableName("chunk")
	TABLE_TAG          = TableName("tag")
	TABLE_QUESTION     = TableName("question")
	TABLE_DATASET      = TableName("dataset")
	TABLE_GA_PAIR      = TableName("ga_pair")
	TABLE_MODEL_CONFIG = TableName("model_config")
)
