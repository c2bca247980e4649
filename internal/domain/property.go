package domain

import "time"

// Property is a Property Registry record. Owner is fixed at creation.
type Property struct {
	PropertyID int64     `gorm:"column:property_id;primaryKey;autoIncrement:false" json:"property_id"`
	Details    string    `gorm:"column:details;type:text;not null" json:"details"`
	Owner      Account   `gorm:"column:owner;type:varchar(42);not null;index" json:"owner"`
	CreatedAt  time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Property) TableName() string {
	return "Properties"
}
