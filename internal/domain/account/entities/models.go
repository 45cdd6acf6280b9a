package entities

import "time"

// AccountModel is a GORM model for accounts table
type AccountModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false"`
	FirstName string `gorm:"size:255"`
	RootPath  string `gorm:"size:1024;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AccountModel) TableName() string {
	return "accounts"
}

// ToEntity converts DB model to domain entity
func (m *AccountModel) ToEntity() *Account {
	return &Account{
		ID:        m.ID,
		FirstName: m.FirstName,
		RootPath:  m.RootPath,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// NewAccountModel converts a domain entity to its DB model
func NewAccountModel(a *Account) *AccountModel {
	return &AccountModel{
		ID:        a.ID,
		FirstName: a.FirstName,
		RootPath:  a.RootPath,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
