package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pulseboard/pulse/internal/cache"
	"github.com/pulseboard/pulse/internal/middleware"
	"github.com/pulseboard/pulse/internal/models"
	"github.com/pulseboard/pulse/internal/repositories"
	"github.com/pulseboard/pulse/internal/services"
	"github.com/pulseboard/pulse/internal/upload"
	"github.com/pulseboard/pulse/internal/validators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Deliberately not the config default: signing and verification must share
// the configured secret, not a fallback.
const testJWTSecret = "handlers-test-secret"

type testApp struct {
	e         *echo.Echo
	db        *gorm.DB
	users     repositories.UserRepository
	groups    repositories.GroupRepository
	posts     repositories.PostRepository
	follows   repositories.FollowRepository
	pageCache cache.PageCache
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	))

	userRepo := repositories.NewPostgresUserRepository(db)
	groupRepo := repositories.NewPostgresGroupRepository(db)
	postRepo := repositories.NewPostgresPostRepository(db)
	commentRepo := repositories.NewPostgresCommentRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)

	queryService := services.NewQueryService(postRepo, userRepo, groupRepo, commentRepo, followRepo)
	mutationService := services.NewMutationService(postRepo, userRepo, commentRepo, followRepo)

	imageStore, err := upload.NewImageStore(t.TempDir())
	require.NoError(t, err)
	pageCache := cache.NewTTLCache(time.Minute)

	e := echo.New()
	renderer, err := NewTemplateRenderer("../../web/templates/*.html")
	require.NoError(t, err)
	e.Renderer = renderer
	e.Validator = validators.NewValidator()
	e.Use(middleware.SessionAuthMiddleware(testJWTSecret))

	authHandler := NewAuthHandler(userRepo, testJWTSecret)
	authHandler.RegisterAuthRoutes(e.Group("/auth"))

	postHandler := NewPostHandler(queryService, mutationService, groupRepo, imageStore, pageCache, time.Minute)
	postHandler.RegisterPublicRoutes(e.Group(""))

	protected := e.Group("", middleware.RequireAuthMiddleware())
	postHandler.RegisterProtectedRoutes(protected)

	followHandler := NewFollowHandler(queryService, mutationService, userRepo)
	followHandler.RegisterFollowRoutes(protected)

	return &testApp{
		e:         e,
		db:        db,
		users:     userRepo,
		groups:    groupRepo,
		posts:     postRepo,
		follows:   followRepo,
		pageCache: pageCache,
	}
}

func (a *testApp) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username}
	require.NoError(t, a.users.CreateUser(user))
	return user
}

func (a *testApp) createPost(t *testing.T, author *models.User, text string) *models.Post {
	t.Helper()
	post := &models.Post{Text: text, AuthorID: author.ID}
	require.NoError(t, a.posts.CreatePost(post))
	return post
}

// sessionCookie signs a session token for the user the way the auth handler does.
func sessionCookie(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookieName, Value: signed}
}

func (a *testApp) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func TestIndexPage(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser(t, "ivan")
	app.createPost(t, author, "hello from ivan")

	rec := app.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello from ivan")
}

func TestIndexPageCacheStaleness(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser(t, "ivan")
	app.createPost(t, author, "the first post")

	first := app.get("/")
	require.Equal(t, http.StatusOK, first.Code)
	require.Contains(t, first.Body.String(), "the first post")

	// A new post does not invalidate the cached listing.
	app.createPost(t, author, "the second post")
	stale := app.get("/")
	assert.Equal(t, first.Body.String(), stale.Body.String())
	assert.NotContains(t, stale.Body.String(), "the second post")

	// Clearing the cache makes the new post visible.
	app.pageCache.Clear()
	fresh := app.get("/")
	assert.Contains(t, fresh.Body.String(), "the second post")
}

func TestGroupPage(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser(t, "ivan")
	group := &models.Group{Title: "News", Slug: "news", Description: "all the news"}
	require.NoError(t, app.groups.CreateGroup(group))
	post := &models.Post{Text: "grouped post", AuthorID: author.ID, GroupID: &group.ID}
	require.NoError(t, app.posts.CreatePost(post))
	app.createPost(t, author, "ungrouped post")

	rec := app.get("/group/news/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "grouped post")
	assert.NotContains(t, rec.Body.String(), "ungrouped post")

	rec = app.get("/group/no-such-group/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfilePage(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser(t, "ivan")
	app.createPost(t, author, "profile post")

	rec := app.get("/profile/ivan/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "profile post")
	assert.Contains(t, rec.Body.String(), "1 posts")

	rec = app.get("/profile/nobody/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostDetailPage(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser(t, "ivan")
	post := app.createPost(t, author, "a post worth reading")

	rec := app.get(fmt.Sprintf("/posts/%d/", post.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a post worth reading")

	rec = app.get("/posts/99999/")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.get("/posts/not-a-number/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRequiresLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.get("/create/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get(echo.HeaderLocation))

	rec = app.postForm("/create/", url.Values{"text": {"anonymous post"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get(echo.HeaderLocation))
}

func TestCreatePostFlow(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "ivan")
	cookie := sessionCookie(t, user)

	rec := app.postForm("/create/", url.Values{"text": {"published via the form"}}, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/ivan/", rec.Header().Get(echo.HeaderLocation))

	count, err := app.posts.CountPostsByAuthor(user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCreatePostEmptyTextReRendersForm(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "ivan")
	cookie := sessionCookie(t, user)

	rec := app.postForm("/create/", url.Values{"text": {"   "}}, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "text must not be empty")

	count, err := app.posts.CountPostsByAuthor(user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count, "validation failure must not write")
}

func TestCreatePostUnknownGroupReRendersForm(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "ivan")
	cookie := sessionCookie(t, user)

	rec := app.postForm("/create/", url.Values{
		"text":  {"some text"},
		"group": {"no-such-group"},
	}, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown group")
}

func TestEditByNonAuthorRedirectsToDetail(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser(t, "ivan")
	other := app.createUser(t, "petr")
	post := app.createPost(t, author, "original text")
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	rec := app.postForm(fmt.Sprintf("/posts/%d/edit", post.ID),
		url.Values{"text": {"hijacked"}}, sessionCookie(t, other))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detailURL, rec.Header().Get(echo.HeaderLocation))

	got, err := app.posts.GetPostByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original text", got.Text)
}

func TestEditInvalidFormByNonAuthorStillRedirects(t *testing.T) {
	// The author gate runs before form validation, so a non-author with a
	// broken form still gets the detail-page redirect, never the edit form.
	app := newTestApp(t)
	author := app.createUser(t, "ivan")
	other := app.createUser(t, "petr")
	post := app.createPost(t, author, "original text")

	rec := app.postForm(fmt.Sprintf("/posts/%d/edit", post.ID), url.Values{
		"text":  {"hijacked"},
		"group": {"no-such-group"},
	}, sessionCookie(t, other))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), rec.Header().Get(echo.HeaderLocation))

	got, err := app.posts.GetPostByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original text", got.Text)
}

func TestEditByAuthor(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser(t, "ivan")
	post := app.createPost(t, author, "original text")
	cookie := sessionCookie(t, author)

	rec := app.get(fmt.Sprintf("/posts/%d/edit", post.ID), cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "original text")

	rec = app.postForm(fmt.Sprintf("/posts/%d/edit", post.ID),
		url.Values{"text": {"edited text"}}, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), rec.Header().Get(echo.HeaderLocation))

	got, err := app.posts.GetPostByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited text", got.Text)
}

func TestAddCommentFlow(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser(t, "ivan")
	reader := app.createUser(t, "petr")
	post := app.createPost(t, author, "commentable")
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	rec := app.postForm(fmt.Sprintf("/posts/%d/comment", post.ID),
		url.Values{"text": {"great post"}}, sessionCookie(t, reader))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detailURL, rec.Header().Get(echo.HeaderLocation))

	rec = app.get(detailURL)
	assert.Contains(t, rec.Body.String(), "great post")

	rec = app.postForm("/posts/99999/comment",
		url.Values{"text": {"into the void"}}, sessionCookie(t, reader))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOverlongCommentIsDropped(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser(t, "ivan")
	reader := app.createUser(t, "petr")
	post := app.createPost(t, author, "commentable")
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	rec := app.postForm(fmt.Sprintf("/posts/%d/comment", post.ID),
		url.Values{"text": {strings.Repeat("y", 2001)}}, sessionCookie(t, reader))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, detailURL, rec.Header().Get(echo.HeaderLocation))

	rec = app.get(detailURL)
	assert.NotContains(t, rec.Body.String(), strings.Repeat("y", 50),
		"a comment past the length limit must not be stored")
}

func TestFollowUnfollowFlow(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser(t, "ivan")
	reader := app.createUser(t, "petr")
	cookie := sessionCookie(t, reader)

	rec := app.postForm("/profile/ivan/follow", nil, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile/ivan/", rec.Header().Get(echo.HeaderLocation))

	following, err := app.follows.IsFollowing(reader.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, following)

	rec = app.postForm("/profile/ivan/unfollow", nil, cookie)
	assert.Equal(t, http.StatusFound, rec.Code)

	following, err = app.follows.IsFollowing(reader.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, following)

	// Unfollowing again has no edge to remove.
	rec = app.postForm("/profile/ivan/unfollow", nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowFeed(t *testing.T) {
	app := newTestApp(t)
	followed := app.createUser(t, "ivan")
	ignored := app.createUser(t, "petr")
	reader := app.createUser(t, "reader")
	app.createPost(t, followed, "followed author post")
	app.createPost(t, ignored, "ignored author post")
	require.NoError(t, app.follows.CreateFollow(&models.Follow{
		FollowerID: reader.ID,
		AuthorID:   followed.ID,
	}))

	rec := app.get("/follow/", sessionCookie(t, reader))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "followed author post")
	assert.NotContains(t, rec.Body.String(), "ignored author post")

	rec = app.get("/follow/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get(echo.HeaderLocation))
}

func TestSignupAndLogin(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm("/auth/signup", url.Values{
		"username": {"ivan"},
		"password": {"longenoughpassword"},
	})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.NotEmpty(t, rec.Result().Cookies(), "signup should open a session")

	user, err := app.users.GetUserByUsername("ivan")
	require.NoError(t, err)
	assert.NotEqual(t, "longenoughpassword", user.PasswordHash, "password must be stored hashed")

	rec = app.postForm("/auth/login", url.Values{
		"username": {"ivan"},
		"password": {"wrong password"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown username or wrong password")

	rec = app.postForm("/auth/login", url.Values{
		"username": {"ivan"},
		"password": {"longenoughpassword"},
	})
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestPaginationLinksOnIndex(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser(t, "ivan")
	for i := 1; i <= 15; i++ {
		app.createPost(t, author, fmt.Sprintf("numbered post %d", i))
	}

	rec := app.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page 1 of 2")
	assert.Contains(t, rec.Body.String(), "numbered post 15")
	assert.NotContains(t, rec.Body.String(), "numbered post 5</p>")

	rec = app.get("/?page=2")
	assert.Contains(t, rec.Body.String(), "Page 2 of 2")
	assert.Contains(t, rec.Body.String(), "numbered post 1")
}
