package model

import (
	"gorm.io/datatypes"
)

const TeamTableName = "teams"

// Team 团队
type Team struct {
	BaseModel
	Name        string         `gorm:"size:255;not null;index" json:"name"`
	Description *string        `gorm:"type:text" json:"description"`
	Settings    datatypes.JSON `json:"settings"`
}

func (Team) TableName() string {
	return TeamTableName
}
