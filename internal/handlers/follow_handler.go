package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pulseboard/pulse/internal/apperrors"
	"github.com/pulseboard/pulse/internal/middleware"
	"github.com/pulseboard/pulse/internal/repositories"
	"github.com/pulseboard/pulse/internal/services"
)

// FollowHandler handles the followed-authors feed and the follow/unfollow actions.
type FollowHandler struct {
	queryService    *services.QueryService
	mutationService *services.MutationService
	userRepository  repositories.UserRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(query *services.QueryService, mutation *services.MutationService, userRepo repositories.UserRepository) *FollowHandler {
	return &FollowHandler{
		queryService:    query,
		mutationService: mutation,
		userRepository:  userRepo,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.GET("/follow/", h.FollowIndex)
	g.POST("/profile/:username/follow", h.FollowUser)
	g.POST("/profile/:username/unfollow", h.UnfollowUser)
}

// FollowIndex renders the feed of posts from authors the user follows.
func (h *FollowHandler) FollowIndex(c echo.Context) error {
	listing, err := h.queryService.ListPosts(services.ByFollowed(middleware.ActorID(c)), pageParam(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.Render(http.StatusOK, "follow.html", listingPageData{
		CurrentUser: middleware.ActorUsername(c),
		Posts:       listing.Posts,
		Page:        listing.Page,
	})
}

// FollowUser starts following the author and returns to their profile.
// Following yourself or an already-followed author changes nothing.
func (h *FollowHandler) FollowUser(c echo.Context) error {
	username := c.Param("username")
	author, err := h.userRepository.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.mutationService.Follow(middleware.ActorID(c), author.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusFound, "/profile/"+username+"/")
}

// UnfollowUser stops following the author and returns to their profile.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	username := c.Param("username")
	author, err := h.userRepository.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.mutationService.Unfollow(middleware.ActorID(c), author.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Not following this user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusFound, "/profile/"+username+"/")
}
