package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/rental-messaging-backend/internal/middleware"
	"github.com/pushp314/rental-messaging-backend/internal/services"
	"github.com/pushp314/rental-messaging-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserHeader = "X-Test-User"

// setupRouter mounts the handlers behind a stand-in for AuthMiddleware that
// trusts the X-Test-User header.
func setupRouter(t *testing.T) (*gin.Engine, testutil.Fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := testutil.NewSQLiteStore(t)
	f := testutil.Seed(t, s)
	svc := services.NewThreadService(s, services.Options{
		Now: testutil.Clock(time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)),
	})
	h := NewMessageHandler(svc)

	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware())
	g := r.Group("/api/messages", func(c *gin.Context) {
		c.Set("userId", c.GetHeader(testUserHeader))
	})
	g.GET("/", h.ListInbox)
	g.POST("/", h.SendInquiry)
	g.POST("/reply/:messageId", h.Reply)
	g.GET("/user", h.ListOutbox)
	g.GET("/replies/:messageId", h.ListReplies)

	r.GET("/health", NewHealthHandler(s, nil).Check)
	return r, f
}

func do(t *testing.T, r *gin.Engine, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(testUserHeader, userID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func TestSendInquiry(t *testing.T) {
	r, f := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/messages/", f.Tenant.ID, gin.H{
		"propertyId": f.Loft.ID,
		"message":    "Is this available?",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "Message sent successfully", resp.Message)
	assert.NotEmpty(t, resp.ID)
}

func TestSendInquiry_BadRequests(t *testing.T) {
	r, f := setupRouter(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
		err    string
	}{
		{"missing message", gin.H{"propertyId": f.Loft.ID}, http.StatusBadRequest, "propertyId and message are required"},
		{"missing property", gin.H{"message": "Hello"}, http.StatusBadRequest, "propertyId and message are required"},
		{"blank message", gin.H{"propertyId": f.Loft.ID, "message": "   "}, http.StatusBadRequest, "Message cannot be empty"},
		{"unknown property", gin.H{"propertyId": "nope", "message": "Hello"}, http.StatusNotFound, "Property not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/messages/", f.Tenant.ID, tt.body)
			assert.Equal(t, tt.status, w.Code)

			var resp map[string]string
			decode(t, w, &resp)
			assert.Equal(t, tt.err, resp["error"])
		})
	}
}

func TestReplyAndListings(t *testing.T) {
	r, f := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/messages/", f.Tenant.ID, gin.H{
		"propertyId": f.Loft.ID,
		"message":    "Is this available?",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var sent struct {
		ID string `json:"id"`
	}
	decode(t, w, &sent)

	// Owner sees the inquiry grouped under the property.
	w = do(t, r, http.MethodGet, "/api/messages/", f.Owner.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var inbox map[string][]services.InboxEntry
	decode(t, w, &inbox)
	require.Len(t, inbox[f.Loft.ID], 1)
	assert.Equal(t, "Alex Tenant", inbox[f.Loft.ID][0].Sender)
	assert.Equal(t, "Sunny Loft", inbox[f.Loft.ID][0].PropertyTitle)

	// No replies yet.
	w = do(t, r, http.MethodGet, "/api/messages/replies/"+sent.ID, f.Tenant.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/messages/reply/"+sent.ID, f.Owner.ID, gin.H{"replyMessage": "Yes"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var replied struct {
		Message string `json:"message"`
		Reply   struct {
			ID            string `json:"id"`
			ReceiverID    string `json:"receiverId"`
			ParentMessage string `json:"parentMessage"`
			IsReply       bool   `json:"isReply"`
			Message       string `json:"message"`
		} `json:"reply"`
	}
	decode(t, w, &replied)
	assert.Equal(t, "Reply sent successfully", replied.Message)
	assert.Equal(t, f.Tenant.ID, replied.Reply.ReceiverID)
	assert.Equal(t, sent.ID, replied.Reply.ParentMessage)
	assert.True(t, replied.Reply.IsReply)
	assert.Equal(t, "Yes", replied.Reply.Message)

	w = do(t, r, http.MethodGet, "/api/messages/user", f.Tenant.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var outbox []services.OutboxMessage
	decode(t, w, &outbox)
	require.Len(t, outbox, 1)
	assert.Equal(t, "Sunny Loft", outbox[0].Property.Title)
	require.Len(t, outbox[0].Replies, 1)
	assert.Equal(t, "Yes", outbox[0].Replies[0].Message)
	assert.Equal(t, "Bea Owner", outbox[0].Replies[0].Sender.Name)

	w = do(t, r, http.MethodGet, "/api/messages/replies/"+sent.ID, f.Tenant.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var replies []services.ReplyView
	decode(t, w, &replies)
	require.Len(t, replies, 1)
	assert.Equal(t, replied.Reply.ID, replies[0].ID)
}

func TestReply_Errors(t *testing.T) {
	r, f := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/messages/reply/missing", f.Owner.ID, gin.H{"replyMessage": "Yes"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp map[string]string
	decode(t, w, &resp)
	assert.Equal(t, "Message not found", resp["error"])

	w = do(t, r, http.MethodPost, "/api/messages/reply/missing", f.Owner.ID, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/messages/user", f.Owner.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestListInbox_Empty(t *testing.T) {
	r, f := setupRouter(t)

	w := do(t, r, http.MethodGet, "/api/messages/", f.Tenant.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "{}", w.Body.String())
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	decode(t, w, &resp)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "up", resp["store"])
	assert.Equal(t, "disabled", resp["redis"])
}
