package domain

type Category struct {
	ID          string `gorm:"primaryKey;size:32" json:"id"`
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Category) TableName() string { return "categories" }
