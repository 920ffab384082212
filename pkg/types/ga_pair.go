package types

// GaPair Genre-Audience 数据增强对
type GaPair struct {
	ID            string `json:"id" db:"id"`
	ProjectID     string `json:"projectId" db:"project_id"`
	FileID        string `json:"fileId" db:"file_id"`
	PairNumber    int    `json:"pairNumber" db:"pair_number"`
	GenreTitle    string `json:"genreTitle" db:"genre_title"`
	GenreDesc     string `json:"genreDesc" db:"genre_desc"`
	AudienceTitle string `json:"audienceTitle" db:"audience_title"`
	AudienceDesc  string `json:"audienceDesc" db:"audience_desc"`
	IsActive      bool   `json:"isActive" db:"is_active"`
	CreatedAt     int64  `json:"createAt" db:"created_at"`
	UpdatedAt     int64  `json:"updatedAt" db:"updated_at"`
}
