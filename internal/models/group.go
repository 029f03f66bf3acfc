package models

// Group is an optional topic a post can be published under. Deleting a group
// detaches its posts (group reference cleared) rather than deleting them.
type Group struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"size:200"`
	Slug        string `json:"slug" gorm:"uniqueIndex;size:200"`
	Description string `json:"description"`
}
