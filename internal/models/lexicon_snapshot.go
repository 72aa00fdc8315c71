package models

import (
	"time"

	"gorm.io/datatypes"
)

// LexiconSnapshot is one published version of the lexical tables. The newest
// row is read once at startup.
type LexiconSnapshot struct {
	ID        uint           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Version   string         `gorm:"column:version;type:text;uniqueIndex" json:"version"`
	Body      datatypes.JSON `gorm:"column:body;type:jsonb" json:"body"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (LexiconSnapshot) TableName() string { return "lexicon_snapshots" }
