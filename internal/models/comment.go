package models

import "time"

// Comment belongs to one post and one author; it is deleted together with
// either of them. Comments under a post are ordered newest first.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"index;not null"`
	Post      Post      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AuthorID  uint      `json:"author_id" gorm:"index;not null"`
	Author    User      `json:"author" gorm:"constraint:OnDelete:CASCADE"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentForm defines the add-comment form fields.
type CommentForm struct {
	Text string `form:"text" validate:"required,min=1,max=2000"`
}
