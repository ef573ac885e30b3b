package models

import "time"

// GoogleToken is the admin's OAuth token for the Sheets export. Single row.
type GoogleToken struct {
	ID           uint `gorm:"primarykey"`
	Email        string
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GoogleSheet is the spreadsheet the roster is exported to.
type GoogleSheet struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	SpreadsheetID  string     `gorm:"uniqueIndex;size:191" json:"spreadsheet_id"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	LastExportedAt *time.Time `json:"last_exported_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
