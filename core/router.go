package core

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Host bundles what the companion host serves.
type Host struct {
	Session *SessionController
	Client  *Client
	Blocked *BlockedInterceptor
	Status  *StatusService // nil when Redis is not configured
}

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, store *sessions.CookieStore, h Host) *gin.Engine {
	startedAt := time.Now()
	r := gin.Default()

	// origin/CORS -> UI session and CSRF -> blocked screen
	r.Use(BrowserOriginMiddleware(cfg))
	r.Use(UISessionMiddleware(store, h.Session))
	r.Use(BlockedGate(h.Blocked))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})))
	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, CollectSystemStatus(c.Request.Context(), h.Session, h.Status, startedAt))
	})

	api := r.Group("/api")
	registerSessionRoutes(api, h)
	registerPublicRoutes(api, h.Client)

	private := api.Group("", RequireAuthenticated(h.Session))
	registerPrivateRoutes(private, h)

	admin := api.Group("/admin", RequireAdmin(h.Session))
	registerAdminRoutes(admin, h.Client)

	return r
}

func registerSessionRoutes(api *gin.RouterGroup, h Host) {
	api.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, SessionStatusOf(h.Session.State()))
	})

	api.POST("/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}
		if err := h.Session.Login(c.Request.Context(), req.Email, req.Password); err != nil {
			respondAPIError(c, err)
			return
		}
		if !reissueCSRF(c) {
			return
		}
		c.JSON(http.StatusOK, SessionStatusOf(h.Session.State()))
	})

	api.POST("/register", func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}
		if err := h.Session.Register(c.Request.Context(), req.Username, req.Email, req.Password); err != nil {
			respondAPIError(c, err)
			return
		}
		if !reissueCSRF(c) {
			return
		}
		c.JSON(http.StatusOK, SessionStatusOf(h.Session.State()))
	})

	api.POST("/logout", func(c *gin.Context) {
		// the state is reset even when the store fails
		_ = h.Session.Logout(c.Request.Context())
		if !reissueCSRF(c) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.POST("/refresh", func(c *gin.Context) {
		h.Session.RefreshUser(c.Request.Context())
		if !reissueCSRF(c) {
			return
		}
		c.JSON(http.StatusOK, SessionStatusOf(h.Session.State()))
	})

	api.GET("/blocked", func(c *gin.Context) {
		screen, blocked := h.Blocked.Screen(h.Session.State())
		if !blocked {
			c.JSON(http.StatusOK, gin.H{"blocked": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"blocked": true, "screen": screen})
	})

	api.POST("/appeal", func(c *gin.Context) {
		if !h.Session.State().IsBlocked() {
			respondError(c, http.StatusConflict, "NOT_BLOCKED", "account is not blocked")
			return
		}
		var req struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}
		if err := h.Blocked.SubmitAppeal(c.Request.Context(), req.Text); err != nil {
			respondAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "submitted"})
	})
}

func registerPublicRoutes(api *gin.RouterGroup, client *Client) {
	api.GET("/feed", func(c *gin.Context) {
		page, limit, err := parsePagination(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		posts, err := client.Feed(c.Request.Context(), page, limit)
		if err != nil {
			respondAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"posts": posts, "page": page, "limit": limit})
	})

	api.GET("/posts/:id", func(c *gin.Context) {
		detail, err := client.Post(c.Request.Context(), FlexID(c.Param("id")))
		if err != nil {
			respondAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	})

	api.GET("/profile/:username", func(c *gin.Context) {
		p, err := client.Profile(c.Request.Context(), c.Param("username"))
		if err != nil {
			respondAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	api.GET("/profile/:username/:tab", func(c *gin.Context) {
		posts, err := client.UserPosts(c.Request.Context(), c.Param("username"), c.Param("tab"))
		if err != nil {
			var apiErr *APIError
			if !errors.As(err, &apiErr) && !errors.Is(err, ErrNetwork) {
				respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
				return
			}
			respondAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"posts": posts})
	})
}

func registerPrivateRoutes(api *gin.RouterGroup, h Host) {
	client := h.Client

	api.GET("/search", func(c *gin.Context) {
		users, err := client.SearchUsers(c.Request.Context(), c.Query("q"))
		if err != nil {
			respondAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	})

	api.POST("/posts", func(c *gin.Context) {
		var req struct {
			Content string   `json:"content"`
			Media   []string `json:"media"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}
		if strings.TrimSpace(req.Content) == "" && len(req.Media) == 0 {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "post is empty")
			return
		}
		p, err := client.CreatePost(c.Request.Context(), req.Content, req.Media)
		if err != nil {
			respondAPIError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	api.POST("/posts/:id/:action", func(c *gin.Context) {
		ctx := c.Request.Context()
		id := FlexID(c.Param("id"))
		var req struct {
			Reason  string `json:"reason"`
			Text    string `json:"text"`
			ReplyTo string `json:"reply_to_id"`
		}
		_ = c.ShouldBindJSON(&req)

		var (
			res any
			err error
		)
		switch c.Param("action") {
		case "like":
			res, err = client.LikePost(ctx, id)
		case "repost":
			res, err = client.RepostPost(ctx, id)
		case "delete":
			err = client.DeletePost(ctx, id)
		case "report":
			err = client.ReportPost(ctx, id, req.Reason)
		case "comment":
			if strings.TrimSpace(req.Text) == "" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "comment is empty")
				return
			}
			res, err = client.Comment(ctx, id, req.Text, FlexID(req.ReplyTo))
		default:
			respondError(c, http.StatusNotFound, "NOT_FOUND", "unknown action")
			return
		}
		respondResult(c, res, err)
	})

	api.POST("/comments/:id/:action", func(c *gin.Context) {
		ctx := c.Request.Context()
		id := FlexID(c.Param("id"))
		var (
			res any
			err error
		)
		switch c.Param("action") {
		case "like":
			res, err = client.LikeComment(ctx, id)
		case "delete":
			err = client.DeleteComment(ctx, id)
		case "pin":
			err = client.PinComment(ctx, id)
		default:
			respondError(c, http.StatusNotFound, "NOT_FOUND", "unknown action")
			return
		}
		respondResult(c, res, err)
	})

	api.POST("/users/:username/:action", func(c *gin.Context) {
		ctx := c.Request.Context()
		username := c.Param("username")
		var req struct {
			Reason string `json:"reason"`
		}
		_ = c.ShouldBindJSON(&req)
		var (
			res any
			err error
		)
		switch c.Param("action") {
		case "follow":
			res, err = client.Follow(ctx, username)
		case "block":
			err = client.BlockUser(ctx, username)
		case "report":
			err = client.ReportUser(ctx, username, req.Reason)
		default:
			respondError(c, http.StatusNotFound, "NOT_FOUND", "unknown action")
			return
		}
		respondResult(c, res, err)
	})

	api.POST("/upload", func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "file is required")
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "failed to read upload")
			return
		}
		defer f.Close()
		u, err := client.UploadMedia(c.Request.Context(), fh.Filename, f)
		if err != nil {
			respondAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": u})
	})

	api.GET("/notifications", func(c *gin.Context) {
		ctx := c.Request.Context()
		items, err := client.Notifications(ctx)
		if err != nil {
			respondAPIError(c, err)
			return
		}
		requests, err := client.FollowRequests(ctx)
		if err != nil {
			respondAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"notifications": items, "follow_requests": requests})
	})

	api.POST("/notifications/read-all", func(c *gin.Context) {
		respondResult(c, nil, client.MarkAllNotificationsRead(c.Request.Context()))
	})

	api.POST("/follow-requests/:id/:action", func(c *gin.Context) {
		ctx := c.Request.Context()
		id := FlexID(c.Param("id"))
		var err error
		switch c.Param("action") {
		case "accept":
			err = client.AcceptFollowRequest(ctx, id)
		case "reject":
			err = client.RejectFollowRequest(ctx, id)
		default:
			respondError(c, http.StatusNotFound, "NOT_FOUND", "unknown action")
			return
		}
		respondResult(c, nil, err)
	})

	api.GET("/messages", func(c *gin.Context) {
		chats, err := client.Chats(c.Request.Context())
		if err != nil {
			respondAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"chats": chats})
	})

	api.GET("/messages/:userId", func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := FlexID(c.Param("userId"))
		t, err := client.Thread(ctx, userID)
		if err != nil {
			respondAPIError(c, err)
			return
		}
		// opening a thread marks it read, as the web client does
		if err := client.MarkRead(ctx, userID); err != nil {
			respondAPIError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"messages": t.Messages, "pinned": t.Pinned, "user": t.User})
	})

	api.POST("/messages/:action", func(c *gin.Context) {
		ctx := c.Request.Context()
		var req struct {
			To        string `json:"receiver_id"`
			MessageID string `json:"message_id"`
			Content   string `json:"content"`
			ReplyTo   string `json:"reply_to_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}
		var (
			res any
			err error
		)
		switch c.Param("action") {
		case "send":
			if strings.TrimSpace(req.Content) == "" {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "message is empty")
				return
			}
			res, err = client.SendMessage(ctx, FlexID(req.To), req.Content, FlexID(req.ReplyTo))
		case "edit":
			err = client.EditMessage(ctx, FlexID(req.MessageID), req.Content)
		case "hide":
			err = client.HideMessage(ctx, FlexID(req.MessageID))
		case "pin":
			err = client.PinMessage(ctx, FlexID(req.MessageID))
		default:
			respondError(c, http.StatusNotFound, "NOT_FOUND", "unknown action")
			return
		}
		respondResult(c, res, err)
	})

	api.GET("/settings", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": h.Session.State().User, "themes": Themes})
	})

	api.POST("/settings/:section", func(c *gin.Context) {
		ctx := c.Request.Context()
		var err error
		switch c.Param("section") {
		case "profile":
			var upd ProfileUpdate
			if err := c.ShouldBindJSON(&upd); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			err = client.UpdateProfile(ctx, upd)
		case "theme":
			var req struct {
				Theme string `json:"theme"`
			}
			_ = c.ShouldBindJSON(&req)
			err = client.SetTheme(ctx, req.Theme)
		case "privacy":
			var p Privacy
			if err := c.ShouldBindJSON(&p); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}
			err = client.SetPrivacy(ctx, p)
		case "verification":
			var req struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			}
			_ = c.ShouldBindJSON(&req)
			err = client.RequestVerification(ctx, req.Type, req.Reason)
		case "delete":
			if err = client.DeleteAccount(ctx); err == nil && !reissueCSRF(c) {
				return
			}
		case "avatar":
			fh, ferr := c.FormFile("avatar")
			if ferr != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "avatar is required")
				return
			}
			f, ferr := fh.Open()
			if ferr != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "failed to read upload")
				return
			}
			defer f.Close()
			var avatarURL string
			avatarURL, err = client.UploadAvatar(ctx, fh.Filename, f)
			if err == nil {
				c.JSON(http.StatusOK, gin.H{"avatar_url": avatarURL})
				return
			}
		default:
			respondError(c, http.StatusNotFound, "NOT_FOUND", "unknown settings section")
			return
		}
		respondResult(c, nil, err)
	})
}

func registerAdminRoutes(admin *gin.RouterGroup, client *Client) {
	admin.GET("/stats", func(c *gin.Context) {
		s, err := client.AdminStats(c.Request.Context())
		respondResult(c, s, err)
	})
	admin.GET("/reports", func(c *gin.Context) {
		items, err := client.AdminReports(c.Request.Context())
		respondResult(c, gin.H{"reports": items}, err)
	})
	admin.GET("/verifications", func(c *gin.Context) {
		items, err := client.AdminVerifications(c.Request.Context())
		respondResult(c, gin.H{"verifications": items}, err)
	})
	admin.GET("/appeals", func(c *gin.Context) {
		items, err := client.AdminAppeals(c.Request.Context())
		respondResult(c, gin.H{"appeals": items}, err)
	})

	admin.POST("/:kind/:id/:action", func(c *gin.Context) {
		ctx := c.Request.Context()
		id := FlexID(c.Param("id"))
		var accept bool
		switch c.Param("action") {
		case "accept":
			accept = true
		case "reject":
		default:
			respondError(c, http.StatusNotFound, "NOT_FOUND", "unknown action")
			return
		}
		var err error
		switch c.Param("kind") {
		case "reports":
			err = client.ResolveReport(ctx, id, accept)
		case "verifications":
			err = client.ResolveVerification(ctx, id, accept)
		case "appeals":
			err = client.ResolveAppeal(ctx, id, accept)
		default:
			respondError(c, http.StatusNotFound, "NOT_FOUND", "unknown queue")
			return
		}
		respondResult(c, nil, err)
	})

	admin.POST("/block-user", func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Reason   string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "username is required")
			return
		}
		respondResult(c, nil, client.AdminBlockUser(c.Request.Context(), req.Username, req.Reason))
	})

	admin.POST("/releases", func(c *gin.Context) {
		var rel Release
		if err := c.ShouldBindJSON(&rel); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}
		respondResult(c, nil, client.AddRelease(c.Request.Context(), rel))
	})
}

// respondResult writes res (or {"status":"ok"} when res is nil) or the error.
func respondResult(c *gin.Context, res any, err error) {
	if err != nil {
		respondAPIError(c, err)
		return
	}
	if res == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	c.JSON(http.StatusOK, res)
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func parsePagination(pageStr, perPageStr string) (int, int, error) {
	page := 1
	perPage := defaultPerPage
	if strings.TrimSpace(pageStr) != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			return 0, 0, errors.New("page must be a positive integer")
		}
		page = p
	}
	if strings.TrimSpace(perPageStr) != "" {
		p, err := strconv.Atoi(perPageStr)
		if err != nil || p <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
		if p > maxPerPage {
			p = maxPerPage
		}
		perPage = p
	}
	return page, perPage, nil
}
