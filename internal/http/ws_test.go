package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-feed/internal/realtime"
)

func dialFeed(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed/ws"
	header := http.Header{"Authorization": {"Bearer " + token}}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// give the server side a moment to register with the hub
	time.Sleep(100 * time.Millisecond)
	return conn
}

func TestWebsocket_ReceivesPostEvents(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.signupAndLogin(t, "Max", "max@example.com")

	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	conn := dialFeed(t, srv, token)

	rec, body := ts.doMultipart(t, http.MethodPost, "/feed/post", token, postForm{
		title: "Hello World", content: "Lorem ipsum dolor", file: "pic.png",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	postID := body["post"].(map[string]any)["id"].(string)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event realtime.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, realtime.ActionCreate, event.Action)
	assert.Equal(t, postID, event.Post.(map[string]any)["id"])

	rec, _ = ts.doJSON(t, http.MethodDelete, "/feed/post/"+postID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, realtime.ActionDelete, event.Action)
	assert.Equal(t, postID, event.Post)
}

func TestWebsocket_RequiresAuthentication(t *testing.T) {
	ts := newTestServer(t)

	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
