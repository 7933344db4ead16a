package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
)

func init() { gin.SetMode(gin.TestMode) }

func setup(t *testing.T, opts ...Option) (*store.Store, *Server) {
	t.Helper()
	s := store.New()
	srv := NewServer(s, opts...)
	t.Cleanup(srv.Close)
	return s, srv
}

func do(srv *Server, method, path, body string, header ...string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		r.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealthz(t *testing.T) {
	_, srv := setup(t)
	w := do(srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListTodos(t *testing.T) {
	_, srv := setup(t)
	w := do(srv, http.MethodGet, "/v1/todos", "")
	require.Equal(t, http.StatusOK, w.Code)

	todos := decode[[]model.Todo](t, w)
	require.Len(t, todos, 1)
	assert.Equal(t, "Testing Task.", todos[0].Title)
}

func TestCreateTodo(t *testing.T) {
	s, srv := setup(t)

	w := do(srv, http.MethodPost, "/v1/todos", `{"title":"Buy milk","description":"2%"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[model.Todo](t, w)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, "2%", created.Description)
	assert.False(t, created.IsComplete)
	assert.Equal(t, created, s.ListAll()[0])

	w = do(srv, http.MethodPost, "/v1/todos", `{"title":"   "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"error":"Title cannot be empty."}`, w.Body.String())

	w = do(srv, http.MethodPost, "/v1/todos", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 2, s.Len())
}

func TestGetTodo(t *testing.T) {
	s, srv := setup(t)
	seed := s.ListAll()[0]

	w := do(srv, http.MethodGet, "/v1/todos/"+seed.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, seed.ID, decode[model.Todo](t, w).ID)

	w = do(srv, http.MethodGet, "/v1/todos/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(srv, http.MethodGet, "/v1/todos/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"todo not found"}`, w.Body.String())
}

func TestUpdateTodo(t *testing.T) {
	s, srv := setup(t)
	seed := s.ListAll()[0]
	path := "/v1/todos/" + seed.ID.String()

	w := do(srv, http.MethodPut, path, `{"title":"Renamed","description":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Todo](t, w)
	assert.Equal(t, seed.ID, got.ID)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "", got.Description)
	assert.Equal(t, seed.DateCreated.UnixNano(), got.DateCreated.UnixNano())

	w = do(srv, http.MethodPut, path, `{"title":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Renamed", s.ListAll()[0].Title)

	w = do(srv, http.MethodPut, "/v1/todos/"+uuid.NewString(), `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleAndDelete(t *testing.T) {
	s, srv := setup(t)
	seed := s.ListAll()[0]
	path := "/v1/todos/" + seed.ID.String()

	w := do(srv, http.MethodPost, path+"/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[model.Todo](t, w).IsComplete)

	w = do(srv, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, s.Len())

	w = do(srv, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(srv, http.MethodPost, path+"/toggle", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidateTitle(t *testing.T) {
	_, srv := setup(t)

	w := do(srv, http.MethodPost, "/v1/validate/title", `{"title":"  "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":false,"reason":"Title cannot be empty."}`, w.Body.String())

	w = do(srv, http.MethodPost, "/v1/validate/title", `{"title":"ok"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true,"reason":""}`, w.Body.String())
}

func TestRequireToken(t *testing.T) {
	_, srv := setup(t, WithToken("Bearer s3cret"))

	w := do(srv, http.MethodGet, "/v1/todos", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")

	w = do(srv, http.MethodGet, "/v1/todos", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(srv, http.MethodGet, "/v1/todos", "", "Authorization", "bearer s3cret")
	assert.Equal(t, http.StatusOK, w.Code)

	// health and metrics stay open
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/metrics", "").Code)
}

func TestStripBearer(t *testing.T) {
	assert.Equal(t, "abc", stripBearer("Bearer abc"))
	assert.Equal(t, "abc", stripBearer("BEARER   abc"))
	assert.Equal(t, "abc", stripBearer("abc"))
	assert.Equal(t, "", stripBearer(""))
}

func TestMetrics(t *testing.T) {
	s, srv := setup(t)

	_, err := s.Create("from the store", "")
	require.NoError(t, err)
	do(srv, http.MethodPost, "/v1/todos", `{"title":"from http"}`)
	do(srv, http.MethodGet, "/v1/todos/"+uuid.NewString(), "")

	w := do(srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `tada_store_mutations_total{op="create"} 2`)
	assert.Contains(t, body, `tada_store_todos 3`)
	assert.Contains(t, body, `tada_http_not_found_total{route="/v1/todos/:id"} 1`)
	assert.Contains(t, body, `tada_http_requests_total{method="POST",route="/v1/todos",status="201"} 1`)
}

func TestCloseDetachesMetrics(t *testing.T) {
	s := store.New()
	srv := NewServer(s)
	srv.Close()

	_, err := s.Create("after close", "")
	require.NoError(t, err)
	body := do(srv, http.MethodGet, "/metrics", "").Body.String()
	assert.NotContains(t, body, "tada_store_mutations_total")
}

func TestWatchStream(t *testing.T) {
	s, srv := setup(t, WithToken("s3cret"))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/todos/watch"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=s3cret", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first watchMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "snapshot", first.Op)
	assert.Len(t, first.Snapshot, 1)
	assert.Nil(t, first.Todo)

	created, err := s.Create("Buy milk", "")
	require.NoError(t, err)

	var next watchMessage
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, "create", next.Op)
	assert.Equal(t, first.Seq+1, next.Seq)
	require.NotNil(t, next.Todo)
	assert.Equal(t, created.ID, next.Todo.ID)
	assert.Len(t, next.Snapshot, 2)
}

func TestWatchDisconnectsSlowClient(t *testing.T) {
	s, srv := setup(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/todos/watch"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	var first watchMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "snapshot", first.Op)

	// Large frames fill the socket so the server falls behind.
	desc := strings.Repeat("x", 1024)
	for i := 0; i < 300; i++ {
		_, err := s.Create("task", desc)
		require.NoError(t, err)
	}

	frames := 0
	for {
		var msg watchMessage
		if err = conn.ReadJSON(&msg); err != nil {
			break
		}
		frames++
		require.Less(t, frames, 300, "server kept streaming")
	}
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
	assert.Equal(t, "too slow", closeErr.Text)
}

func TestBadJSONBody(t *testing.T) {
	_, srv := setup(t)
	r := httptest.NewRequest(http.MethodPost, "/v1/validate/title", bytes.NewBufferString("nope"))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
