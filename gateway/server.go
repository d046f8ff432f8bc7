// Package gateway is the presentation-layer transport: HTTP endpoints
// for registration, login, and profile editing, plus one WebSocket per
// signed-in browser that hosts the client core and streams snapshots.
// It consumes the core's data and forwards user intents; no
// conversation logic lives here.
package gateway

import (
	"log/slog"
	"net/http"

	"chitchat/auth"
	"chitchat/client"
	"chitchat/contract"
	"chitchat/docstore"
	"chitchat/errors"
	"chitchat/identity"

	"github.com/gin-gonic/gin"
)

const maxPhotoBytes = 5 << 20

type Server struct {
	log      *slog.Logger
	provider *identity.Provider
	store    *docstore.Store
	blobs    contract.BlobStore
	tokens   *auth.TokenManager
}

func NewServer(log *slog.Logger, provider *identity.Provider, store *docstore.Store,
	blobs contract.BlobStore, tokens *auth.TokenManager) *Server {
	return &Server{log: log, provider: provider, store: store, blobs: blobs, tokens: tokens}
}

// Router wires all routes. mediaRoot is the object store directory,
// served statically so uploaded photo URLs resolve.
func (s *Server) Router(mediaRoot string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/api/register", s.handleRegister)
	r.POST("/api/login", s.handleLogin)
	r.Static("/media", mediaRoot)

	authorized := r.Group("/", auth.Middleware(s.tokens))
	authorized.GET("/api/profile", s.handleGetProfile)
	authorized.PUT("/api/profile", s.handleSaveProfile)
	authorized.GET("/api/ws", s.handleWebSocket)

	return r
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, token, err := s.provider.CreateAccount(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		s.log.Warn("Registration failed", "email", req.Email, "error", err)
		c.JSON(errors.MapToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, token, err := s.provider.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.log.Warn("Login failed", "email", req.Email, "error", err)
		c.JSON(errors.MapToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *Server) handleGetProfile(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)

	editor := client.NewProfileEditor(s.store, s.blobs, s.provider)
	profile, err := editor.Load(c.Request.Context(), userID)
	if err != nil {
		c.JSON(errors.MapToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// handleSaveProfile applies one profile save: display name from the
// form, optional photo file. Upload happens before the document and
// provider writes, matching the projection's save order.
func (s *Server) handleSaveProfile(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)

	editor := client.NewProfileEditor(s.store, s.blobs, s.provider)
	if _, err := editor.Load(c.Request.Context(), userID); err != nil {
		c.JSON(errors.MapToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	if name := c.PostForm("display_name"); name != "" {
		editor.SetDisplayName(name)
	}

	if file, err := c.FormFile("photo"); err == nil {
		if file.Size > maxPhotoBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo too large"})
			return
		}
		data, err := readMultipartFile(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable photo"})
			return
		}
		editor.AttachPhoto(data)
	}

	profile, err := editor.Save(c.Request.Context())
	if err != nil {
		s.log.Error("Profile save failed", "user_id", userID, "error", err)
		c.JSON(errors.MapToHTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, profile)
}
