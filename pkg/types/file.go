package types

// UploadFile 项目内的源文件，实际内容保存在项目 files 目录下
type UploadFile struct {
	ID        string `json:"id" db:"id"`
	ProjectID string `json:"projectId" db:"project_id"`
	FileName  string `json:"fileName" db:"file_name"`
	FileExt   string `json:"fileExt" db:"file_ext"`
	Path      string `json:"path" db:"path"`
	Size      int64  `json:"size" db:"size"`
	MD5       string `json:"md5" db:"md5"`
	CreatedAt int64  `json:"createAt" db:"created_at"`
}

type ListUploadFileOptions struct {
	ProjectID string
	FileIDs   []string
	FileName  string
}
