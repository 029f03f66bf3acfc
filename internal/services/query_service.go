package services

import (
	"github.com/pulseboard/pulse/internal/models"
	"github.com/pulseboard/pulse/internal/pagination"
	"github.com/pulseboard/pulse/internal/repositories"
)

// titleRunes is how much of the post text becomes the detail page heading.
const titleRunes = 30

// FilterKind selects which posts a listing returns.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterByGroup
	FilterByAuthor
	FilterByFollowed
)

// PostFilter is a named query shape for ListPosts.
type PostFilter struct {
	Kind       FilterKind
	GroupSlug  string
	Username   string
	FollowerID uint
}

// All lists every post.
func All() PostFilter { return PostFilter{Kind: FilterAll} }

// ByGroup lists posts published under the group with the given slug.
func ByGroup(slug string) PostFilter {
	return PostFilter{Kind: FilterByGroup, GroupSlug: slug}
}

// ByAuthor lists posts written by the given username.
func ByAuthor(username string) PostFilter {
	return PostFilter{Kind: FilterByAuthor, Username: username}
}

// ByFollowed lists posts from the authors the given user follows.
func ByFollowed(followerID uint) PostFilter {
	return PostFilter{Kind: FilterByFollowed, FollowerID: followerID}
}

// PostListing is one page of posts plus whatever the filter resolved along
// the way (the group for ByGroup, the author and their post count for
// ByAuthor).
type PostListing struct {
	Posts           []models.Post
	Page            pagination.Page
	Group           *models.Group
	Author          *models.User
	AuthorPostCount int64
}

// PostDetail is a single post with its comments, the author and the author's
// total post count.
type PostDetail struct {
	Post            *models.Post
	Title           string
	Comments        []models.Comment
	AuthorPostCount int64
}

// QueryService serves the read-only projections behind the pages.
type QueryService struct {
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	groupRepository   repositories.GroupRepository
	commentRepository repositories.CommentRepository
	followRepository  repositories.FollowRepository
}

// NewQueryService creates a new QueryService
func NewQueryService(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	groupRepo repositories.GroupRepository,
	commentRepo repositories.CommentRepository,
	followRepo repositories.FollowRepository,
) *QueryService {
	return &QueryService{
		postRepository:    postRepo,
		userRepository:    userRepo,
		groupRepository:   groupRepo,
		commentRepository: commentRepo,
		followRepository:  followRepo,
	}
}

// ListPosts returns the requested page of posts for the filter, newest first.
// Page numbers outside the valid range clamp to the first or last page.
func (s *QueryService) ListPosts(filter PostFilter, page int) (*PostListing, error) {
	listing := &PostListing{}

	switch filter.Kind {
	case FilterByGroup:
		group, err := s.groupRepository.GetGroupBySlug(filter.GroupSlug)
		if err != nil {
			return nil, err
		}
		listing.Group = group
		total, err := s.postRepository.CountPostsByGroup(group.ID)
		if err != nil {
			return nil, err
		}
		listing.Page = pagination.New(page, int(total))
		listing.Posts, err = s.postRepository.ListPostsByGroup(group.ID, listing.Page.Offset(), listing.Page.Size)
		return listing, err

	case FilterByAuthor:
		author, err := s.userRepository.GetUserByUsername(filter.Username)
		if err != nil {
			return nil, err
		}
		listing.Author = author
		total, err := s.postRepository.CountPostsByAuthor(author.ID)
		if err != nil {
			return nil, err
		}
		listing.AuthorPostCount = total
		listing.Page = pagination.New(page, int(total))
		listing.Posts, err = s.postRepository.ListPostsByAuthor(author.ID, listing.Page.Offset(), listing.Page.Size)
		return listing, err

	case FilterByFollowed:
		authorIDs, err := s.followRepository.GetFollowedAuthorIDs(filter.FollowerID)
		if err != nil {
			return nil, err
		}
		total, err := s.postRepository.CountPostsByAuthors(authorIDs)
		if err != nil {
			return nil, err
		}
		listing.Page = pagination.New(page, int(total))
		listing.Posts, err = s.postRepository.ListPostsByAuthors(authorIDs, listing.Page.Offset(), listing.Page.Size)
		return listing, err

	default:
		total, err := s.postRepository.CountAllPosts()
		if err != nil {
			return nil, err
		}
		listing.Page = pagination.New(page, int(total))
		listing.Posts, err = s.postRepository.ListAllPosts(listing.Page.Offset(), listing.Page.Size)
		return listing, err
	}
}

// GetPost returns the post with its ordered comments and the author's total
// post count (all their posts, not just this one).
func (s *QueryService) GetPost(id uint) (*PostDetail, error) {
	post, err := s.postRepository.GetPostByID(id)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepository.ListCommentsByPost(post.ID)
	if err != nil {
		return nil, err
	}
	authorPosts, err := s.postRepository.CountPostsByAuthor(post.AuthorID)
	if err != nil {
		return nil, err
	}
	return &PostDetail{
		Post:            post,
		Title:           truncate(post.Text, titleRunes),
		Comments:        comments,
		AuthorPostCount: authorPosts,
	}, nil
}

// IsFollowing reports whether follower follows author. Always false for
// anonymous readers and for a user looking at their own profile.
func (s *QueryService) IsFollowing(followerID, authorID uint) (bool, error) {
	if followerID == 0 || followerID == authorID {
		return false, nil
	}
	return s.followRepository.IsFollowing(followerID, authorID)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
