package model

import "time"

type ChatTurn struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	HasPlot   bool      `gorm:"not null" json:"has_plot"`
	CreatedAt time.Time `json:"created_at"`
}
