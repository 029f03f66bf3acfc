package services

import (
	"strings"

	"github.com/pulseboard/pulse/internal/apperrors"
	"github.com/pulseboard/pulse/internal/models"
	"github.com/pulseboard/pulse/internal/repositories"
)

// MutationService performs the write operations. Callers pass an
// already-authenticated actor id; an actor of zero means anonymous and every
// mutation rejects it. Mutations never touch the page cache.
type MutationService struct {
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	commentRepository repositories.CommentRepository
	followRepository  repositories.FollowRepository
}

// NewMutationService creates a new MutationService
func NewMutationService(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	commentRepo repositories.CommentRepository,
	followRepo repositories.FollowRepository,
) *MutationService {
	return &MutationService{
		postRepository:    postRepo,
		userRepository:    userRepo,
		commentRepository: commentRepo,
		followRepository:  followRepo,
	}
}

// CreatePost publishes a new post by the actor and returns its id. The group
// and image are optional.
func (s *MutationService) CreatePost(actorID uint, text string, groupID *uint, image string) (uint, error) {
	if actorID == 0 {
		return 0, apperrors.ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return 0, apperrors.NewValidationError("text", "text must not be empty")
	}
	post := &models.Post{
		Text:     text,
		AuthorID: actorID,
		GroupID:  groupID,
		Image:    image,
	}
	if err := s.postRepository.CreatePost(post); err != nil {
		return 0, err
	}
	return post.ID, nil
}

// UpdatePost overwrites the post's text, group and image. Only the author may
// edit; the creation timestamp never changes.
func (s *MutationService) UpdatePost(actorID, postID uint, text string, groupID *uint, image string) error {
	if actorID == 0 {
		return apperrors.ErrUnauthenticated
	}
	post, err := s.postRepository.GetPostByID(postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID {
		return apperrors.ErrForbidden
	}
	if strings.TrimSpace(text) == "" {
		return apperrors.NewValidationError("text", "text must not be empty")
	}
	post.Text = text
	post.GroupID = groupID
	post.Image = image
	return s.postRepository.UpdatePost(post)
}

// CreateComment adds a comment by the actor under the post.
func (s *MutationService) CreateComment(actorID, postID uint, text string) (uint, error) {
	if actorID == 0 {
		return 0, apperrors.ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return 0, apperrors.NewValidationError("text", "text must not be empty")
	}
	if _, err := s.postRepository.GetPostByID(postID); err != nil {
		return 0, err
	}
	comment := &models.Comment{
		PostID:   postID,
		AuthorID: actorID,
		Text:     text,
	}
	if err := s.commentRepository.CreateComment(comment); err != nil {
		return 0, err
	}
	return comment.ID, nil
}

// Follow records a follower -> author edge. Following yourself or an author
// you already follow is a no-op, not an error.
func (s *MutationService) Follow(actorID, authorID uint) error {
	if actorID == 0 {
		return apperrors.ErrUnauthenticated
	}
	if actorID == authorID {
		return nil
	}
	if _, err := s.userRepository.GetUserByID(authorID); err != nil {
		return err
	}
	following, err := s.followRepository.IsFollowing(actorID, authorID)
	if err != nil {
		return err
	}
	if following {
		return nil
	}
	return s.followRepository.CreateFollow(&models.Follow{
		FollowerID: actorID,
		AuthorID:   authorID,
	})
}

// Unfollow removes the edge; it fails with not-found when none exists.
func (s *MutationService) Unfollow(actorID, authorID uint) error {
	if actorID == 0 {
		return apperrors.ErrUnauthenticated
	}
	return s.followRepository.DeleteFollow(actorID, authorID)
}
