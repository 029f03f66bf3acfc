package models

import "time"

// Follow is a directed follower -> author edge controlling feed membership.
// The pair is unique; a user cannot follow the same author twice. Self-follow
// is rejected by the follow operation, not by a storage constraint.
type Follow struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FollowerID uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_author;not null"`
	Follower   User      `json:"-" gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	AuthorID   uint      `json:"author_id" gorm:"index;uniqueIndex:idx_follower_author;not null"`
	Author     User      `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `json:"created_at"`
}
