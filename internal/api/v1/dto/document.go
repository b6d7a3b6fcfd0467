package dto

type DocumentCreateDTO struct {
	ProjectID   string   `json:"project_id" validate:"required"`
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	FileType    string   `json:"file_type" validate:"omitempty,oneof=markdown pdf template"`
	Kind        string   `json:"kind" validate:"required,oneof=guide template checklist video link"`
	Category    string   `json:"category" validate:"required,max=60"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=40"`
	Content     string   `json:"content"`
	FileURL     string   `json:"file_url" validate:"omitempty,url"`
	Featured    bool     `json:"featured"`
}

type UploadRequestDTO struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type"`
}

type CompleteUploadDTO struct {
	StoragePath string `json:"storage_path" validate:"required"`
}
