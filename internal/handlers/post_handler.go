package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pulseboard/pulse/internal/apperrors"
	"github.com/pulseboard/pulse/internal/cache"
	"github.com/pulseboard/pulse/internal/middleware"
	"github.com/pulseboard/pulse/internal/models"
	"github.com/pulseboard/pulse/internal/pagination"
	"github.com/pulseboard/pulse/internal/repositories"
	"github.com/pulseboard/pulse/internal/services"
	"github.com/pulseboard/pulse/internal/upload"
)

// PostHandler handles the post listing, detail, create and edit pages.
type PostHandler struct {
	queryService    *services.QueryService
	mutationService *services.MutationService
	groupRepository repositories.GroupRepository
	imageStore      *upload.ImageStore
	pageCache       cache.PageCache
	cacheTTL        time.Duration
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	query *services.QueryService,
	mutation *services.MutationService,
	groupRepo repositories.GroupRepository,
	imageStore *upload.ImageStore,
	pageCache cache.PageCache,
	cacheTTL time.Duration,
) *PostHandler {
	return &PostHandler{
		queryService:    query,
		mutationService: mutation,
		groupRepository: groupRepo,
		imageStore:      imageStore,
		pageCache:       pageCache,
		cacheTTL:        cacheTTL,
	}
}

// RegisterPublicRoutes registers the pages any reader can open.
func (h *PostHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/", h.Index)
	g.GET("/group/:slug/", h.GroupPosts)
	g.GET("/profile/:username/", h.Profile)
	g.GET("/posts/:id/", h.PostDetail)
}

// RegisterProtectedRoutes registers the pages that require a session.
func (h *PostHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.GET("/create/", h.CreatePostPage)
	g.POST("/create/", h.CreatePost)
	g.GET("/posts/:id/edit", h.EditPostPage)
	g.POST("/posts/:id/edit", h.EditPost)
	g.POST("/posts/:id/comment", h.AddComment)
}

// listingPageData feeds the index, group and profile templates.
type listingPageData struct {
	CurrentUser     string
	Posts           []models.Post
	Page            pagination.Page
	Group           *models.Group
	Author          *models.User
	AuthorPostCount int64
	Following       bool
}

// postFormPageData feeds the create/edit form template.
type postFormPageData struct {
	CurrentUser string
	IsEdit      bool
	PostID      uint
	Text        string
	GroupSlug   string
	Image       string
	Groups      []models.Group
	Error       string
}

// detailPageData feeds the post detail template.
type detailPageData struct {
	CurrentUser     string
	Post            *models.Post
	Title           string
	Comments        []models.Comment
	AuthorPostCount int64
	IsAuthor        bool
}

// Index renders the global listing. Whole rendered pages are cached by page
// number; new posts do not invalidate entries, readers may see a listing up
// to one cache TTL old.
func (h *PostHandler) Index(c echo.Context) error {
	page := pageParam(c)
	key := cache.IndexKey(page)

	if body, ok := h.pageCache.Get(key); ok {
		return c.HTMLBlob(http.StatusOK, body)
	}

	listing, err := h.queryService.ListPosts(services.All(), page)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	data := listingPageData{
		CurrentUser: middleware.ActorUsername(c),
		Posts:       listing.Posts,
		Page:        listing.Page,
	}
	var buf bytes.Buffer
	if err := c.Echo().Renderer.Render(&buf, "index.html", data, c); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.pageCache.Set(key, buf.Bytes(), h.cacheTTL)
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// GroupPosts renders the listing for one group.
func (h *PostHandler) GroupPosts(c echo.Context) error {
	listing, err := h.queryService.ListPosts(services.ByGroup(c.Param("slug")), pageParam(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Group not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.Render(http.StatusOK, "group_list.html", listingPageData{
		CurrentUser: middleware.ActorUsername(c),
		Posts:       listing.Posts,
		Page:        listing.Page,
		Group:       listing.Group,
	})
}

// Profile renders an author's posts plus the viewer's follow status.
func (h *PostHandler) Profile(c echo.Context) error {
	listing, err := h.queryService.ListPosts(services.ByAuthor(c.Param("username")), pageParam(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	following, err := h.queryService.IsFollowing(middleware.ActorID(c), listing.Author.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.Render(http.StatusOK, "profile.html", listingPageData{
		CurrentUser:     middleware.ActorUsername(c),
		Posts:           listing.Posts,
		Page:            listing.Page,
		Author:          listing.Author,
		AuthorPostCount: listing.AuthorPostCount,
		Following:       following,
	})
}

// PostDetail renders one post with its comments.
func (h *PostHandler) PostDetail(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	detail, err := h.queryService.GetPost(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.Render(http.StatusOK, "post_detail.html", detailPageData{
		CurrentUser:     middleware.ActorUsername(c),
		Post:            detail.Post,
		Title:           detail.Title,
		Comments:        detail.Comments,
		AuthorPostCount: detail.AuthorPostCount,
		IsAuthor:        middleware.ActorID(c) == detail.Post.AuthorID,
	})
}

// CreatePostPage renders the empty post form.
func (h *PostHandler) CreatePostPage(c echo.Context) error {
	groups, err := h.groupRepository.ListGroups()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Render(http.StatusOK, "create_post.html", postFormPageData{
		CurrentUser: middleware.ActorUsername(c),
		Groups:      groups,
	})
}

// CreatePost publishes a new post and redirects to the author's profile.
// Validation failures re-render the form with a message instead of writing.
func (h *PostHandler) CreatePost(c echo.Context) error {
	var form models.PostForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&form); err != nil {
		return h.renderPostForm(c, postFormPageData{IsEdit: false, Text: form.Text, GroupSlug: form.GroupSlug, Error: "text must not be empty"})
	}

	groupID, err := h.resolveGroup(form.GroupSlug)
	if err != nil {
		return h.renderPostForm(c, postFormPageData{IsEdit: false, Text: form.Text, GroupSlug: form.GroupSlug, Error: err.Error()})
	}

	image, err := h.saveImage(c)
	if err != nil {
		if apperrors.IsValidation(err) {
			return h.renderPostForm(c, postFormPageData{IsEdit: false, Text: form.Text, GroupSlug: form.GroupSlug, Error: err.Error()})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if _, err := h.mutationService.CreatePost(middleware.ActorID(c), form.Text, groupID, image); err != nil {
		if apperrors.IsValidation(err) {
			return h.renderPostForm(c, postFormPageData{IsEdit: false, Text: form.Text, GroupSlug: form.GroupSlug, Error: err.Error()})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.Redirect(http.StatusFound, "/profile/"+middleware.ActorUsername(c)+"/")
}

// EditPostPage renders the form pre-filled with the post being edited.
// Non-authors are sent back to the post detail page.
func (h *PostHandler) EditPostPage(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	detail, err := h.queryService.GetPost(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if detail.Post.AuthorID != middleware.ActorID(c) {
		return c.Redirect(http.StatusFound, "/posts/"+strconv.FormatUint(uint64(id), 10)+"/")
	}

	groupSlug := ""
	if detail.Post.Group != nil {
		groupSlug = detail.Post.Group.Slug
	}
	return h.renderPostForm(c, postFormPageData{
		IsEdit:    true,
		PostID:    id,
		Text:      detail.Post.Text,
		GroupSlug: groupSlug,
		Image:     detail.Post.Image,
	})
}

// EditPost overwrites text, group and image of the post. Only the author may
// edit; anyone else is redirected to the post detail page unchanged, before
// any of their form input is looked at.
func (h *PostHandler) EditPost(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	detailURL := "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"

	existing, err := h.queryService.GetPost(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if existing.Post.AuthorID != middleware.ActorID(c) {
		return c.Redirect(http.StatusFound, detailURL)
	}

	var form models.PostForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&form); err != nil {
		return h.renderPostForm(c, postFormPageData{IsEdit: true, PostID: id, Text: form.Text, GroupSlug: form.GroupSlug, Error: "text must not be empty"})
	}

	groupID, err := h.resolveGroup(form.GroupSlug)
	if err != nil {
		return h.renderPostForm(c, postFormPageData{IsEdit: true, PostID: id, Text: form.Text, GroupSlug: form.GroupSlug, Error: err.Error()})
	}

	image, err := h.saveImage(c)
	if err != nil {
		if apperrors.IsValidation(err) {
			return h.renderPostForm(c, postFormPageData{IsEdit: true, PostID: id, Text: form.Text, GroupSlug: form.GroupSlug, Error: err.Error()})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if image == "" {
		// No new upload keeps the stored image.
		image = existing.Post.Image
	}

	err = h.mutationService.UpdatePost(middleware.ActorID(c), id, form.Text, groupID, image)
	switch {
	case err == nil:
		return c.Redirect(http.StatusFound, detailURL)
	case errors.Is(err, apperrors.ErrForbidden):
		return c.Redirect(http.StatusFound, detailURL)
	case errors.Is(err, apperrors.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	case apperrors.IsValidation(err):
		return h.renderPostForm(c, postFormPageData{IsEdit: true, PostID: id, Text: form.Text, GroupSlug: form.GroupSlug, Error: err.Error()})
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// AddComment stores a comment and returns to the post detail page. An
// invalid comment is dropped silently, matching the page's inline form
// behavior.
func (h *PostHandler) AddComment(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	detailURL := "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"

	var form models.CommentForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&form); err != nil {
		return c.Redirect(http.StatusFound, detailURL)
	}

	_, err = h.mutationService.CreateComment(middleware.ActorID(c), id, form.Text)
	if err != nil && errors.Is(err, apperrors.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if err != nil && !apperrors.IsValidation(err) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.Redirect(http.StatusFound, detailURL)
}

// renderPostForm re-renders the create/edit form, refreshing the group choices.
func (h *PostHandler) renderPostForm(c echo.Context, data postFormPageData) error {
	groups, err := h.groupRepository.ListGroups()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	data.CurrentUser = middleware.ActorUsername(c)
	data.Groups = groups
	return c.Render(http.StatusOK, "create_post.html", data)
}

// resolveGroup maps the submitted group slug to its id. An empty slug means
// no group; an unknown slug is a validation error.
func (h *PostHandler) resolveGroup(slug string) (*uint, error) {
	if slug == "" {
		return nil, nil
	}
	group, err := h.groupRepository.GetGroupBySlug(slug)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError("group", "unknown group")
		}
		return nil, err
	}
	return &group.ID, nil
}

// saveImage stores an optional uploaded image, returning its file name or ""
// when the form had no image part.
func (h *PostHandler) saveImage(c echo.Context) (string, error) {
	header, err := c.FormFile("image")
	if err != nil {
		// No image part in the form.
		return "", nil
	}
	return h.imageStore.Save(header)
}

// pageParam reads the 1-based page query parameter; anything unparseable
// falls back to the first page.
func pageParam(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// idParam reads the numeric :id route parameter.
func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
