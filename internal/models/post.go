package models

import "time"

// Post is a published entry. The author is required and owns the post; the
// group and image are optional. Listings are ordered by creation time, newest
// first.
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	AuthorID  uint      `json:"author_id" gorm:"index;not null"`
	Author    User      `json:"author" gorm:"constraint:OnDelete:CASCADE"`
	GroupID   *uint     `json:"group_id,omitempty" gorm:"index"`
	Group     *Group    `json:"group,omitempty" gorm:"constraint:OnDelete:SET NULL"`
	Image     string    `json:"image,omitempty"` // relative path under the upload dir
}

// PostForm defines the create/edit post form fields. The image arrives as a
// separate multipart part and is validated by the upload package.
type PostForm struct {
	Text      string `form:"text" validate:"required,min=1"`
	GroupSlug string `form:"group"`
}
