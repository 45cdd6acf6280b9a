package entities

// FileRecordModel is a GORM model for file_record table
type FileRecordModel struct {
	ID                  int32  `gorm:"primaryKey;autoIncrement:false"`
	UniqueID            string `gorm:"primaryKey;size:255;index"`
	TelegramID          int64  `gorm:"not null;index"`
	ChatID              int64  `gorm:"not null"`
	MessageID           int64  `gorm:"not null"`
	Date                int32
	HasSensitiveContent bool
	Size                int64
	DownloadedSize      int64
	Type                string `gorm:"size:32"`
	MimeType            string `gorm:"size:255"`
	FileName            string `gorm:"size:255"`
	Thumbnail           string `gorm:"type:text"`
	Caption             string `gorm:"type:text"`
	LocalPath           string `gorm:"size:1024"`
	DownloadStatus      string `gorm:"size:32;index"`
}

func (FileRecordModel) TableName() string {
	return "file_record"
}

// ToEntity converts DB model to domain entity
func (m *FileRecordModel) ToEntity() *FileRecord {
	return &FileRecord{
		ID:                  m.ID,
		UniqueID:            m.UniqueID,
		TelegramID:          m.TelegramID,
		ChatID:              m.ChatID,
		MessageID:           m.MessageID,
		Date:                m.Date,
		HasSensitiveContent: m.HasSensitiveContent,
		Size:                m.Size,
		Type:                m.Type,
		MimeType:            m.MimeType,
		FileName:            m.FileName,
		Thumbnail:           m.Thumbnail,
		Caption:             m.Caption,
		LocalPath:           m.LocalPath,
		DownloadStatus:      DownloadStatus(m.DownloadStatus),
	}
}

// NewFileRecordModel converts a domain entity to its DB model
func NewFileRecordModel(r *FileRecord) *FileRecordModel {
	return &FileRecordModel{
		ID:                  r.ID,
		UniqueID:            r.UniqueID,
		TelegramID:          r.TelegramID,
		ChatID:              r.ChatID,
		MessageID:           r.MessageID,
		Date:                r.Date,
		HasSensitiveContent: r.HasSensitiveContent,
		Size:                r.Size,
		Type:                r.Type,
		MimeType:            r.MimeType,
		FileName:            r.FileName,
		Thumbnail:           r.Thumbnail,
		Caption:             r.Caption,
		LocalPath:           r.LocalPath,
		DownloadStatus:      string(r.DownloadStatus),
	}
}
