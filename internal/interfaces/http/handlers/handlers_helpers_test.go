package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"p2p-ramp.backend/internal/domain/entities"
	"p2p-ramp.backend/internal/interfaces/http/middleware"
)

// newRouter builds an engine that authenticates every request as actor.
// A zero actor leaves the request anonymous.
func newRouter(actor entities.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if actor.UserID != uuid.Nil {
			c.Set(middleware.UserIDKey, actor.UserID)
			c.Set(middleware.UserRoleKey, string(actor.Role))
		}
		c.Next()
	})
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		buf = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, buf)
	if buf.Len() > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func requireErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	require.Equal(t, code, decodeBody(t, w)["code"])
}

var (
	userActor   = entities.Actor{UserID: uuid.MustParse("0190f1c2-0000-7000-8000-0000000000a1"), Role: entities.UserRoleUser}
	traderActor = entities.Actor{UserID: uuid.MustParse("0190f1c2-0000-7000-8000-0000000000b1"), Role: entities.UserRoleTrader}
	adminActor  = entities.Actor{UserID: uuid.MustParse("0190f1c2-0000-7000-8000-0000000000c1"), Role: entities.UserRoleAdmin}
)
