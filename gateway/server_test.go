package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chitchat/auth"
	"chitchat/docstore"
	"chitchat/identity"
	"chitchat/objectstore"
	"chitchat/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	store := docstore.New(log, db, 16)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = store.Notifier().Run(ctx) }()

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	accounts := repositories.NewAccountRepository(db)
	provider := identity.NewProvider(log, accounts, store, tokens)

	mediaRoot := t.TempDir()
	blobs, err := objectstore.NewDisk(log, mediaRoot, "/media")
	require.NoError(t, err)

	server := NewServer(log, provider, store, blobs, tokens)
	return server.Router(mediaRoot)
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func Test_Register_Login_Profile_Flow(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	// Register
	w := postJSON(t, router, "/api/register", map[string]string{
		"email": "alice@example.com", "password": "longenough", "display_name": "Alice",
	})
	req.Equal(http.StatusCreated, w.Code)

	var registered struct {
		Token string `json:"token"`
		User  struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"user"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &registered))
	req.NotEmpty(registered.Token)
	req.Equal("Alice", registered.User.DisplayName)

	// Login
	w = postJSON(t, router, "/api/login", map[string]string{
		"email": "alice@example.com", "password": "longenough",
	})
	req.Equal(http.StatusOK, w.Code)

	var signedIn struct {
		Token string `json:"token"`
	}
	req.NoError(json.Unmarshal(w.Body.Bytes(), &signedIn))

	// Profile, authorized
	httpReq := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	httpReq.Header.Set("Authorization", "Bearer "+signedIn.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httpReq)
	req.Equal(http.StatusOK, w.Code)
}

func Test_Register_Rejections(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/register", map[string]string{
		"email": "alice@example.com", "password": "longenough", "display_name": "Alice",
	})
	req.Equal(http.StatusCreated, w.Code)

	// Duplicate email
	w = postJSON(t, router, "/api/register", map[string]string{
		"email": "alice@example.com", "password": "otherpassword", "display_name": "Imposter",
	})
	req.Equal(http.StatusConflict, w.Code)

	// Weak password
	w = postJSON(t, router, "/api/register", map[string]string{
		"email": "bob@example.com", "password": "short", "display_name": "Bob",
	})
	req.Equal(http.StatusBadRequest, w.Code)
}

func Test_Login_Invalid_Credentials(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	w := postJSON(t, router, "/api/login", map[string]string{
		"email": "nobody@example.com", "password": "whatever",
	})
	req.Equal(http.StatusUnauthorized, w.Code)
}

func Test_Profile_Requires_Token(t *testing.T) {
	req := require.New(t)
	router := newTestRouter(t)

	httpReq := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httpReq)
	req.Equal(http.StatusUnauthorized, w.Code)

	httpReq = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	httpReq.Header.Set("Authorization", "Bearer not.a.token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httpReq)
	req.Equal(http.StatusUnauthorized, w.Code)
}
