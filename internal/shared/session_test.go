package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)

	sess.SetUser(42)
	sess.Set("theme", "dark")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "test_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// A follow-up request carrying the cookie resumes the same session.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookies[0])
	resumed, err := sm.Load(ctx, req2)
	require.NoError(t, err)

	assert.Equal(t, int64(42), resumed.UserID())
	assert.Equal(t, "dark", resumed.Get("theme"))
}

func TestSessionUntouchedNotPersisted(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))
	assert.Empty(t, res.Result().Cookies())
}

func TestSessionDestroy(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser(42)

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))
	cookie := res.Result().Cookies()[0]

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookie)
	resumed, err := sm.Load(ctx, req2)
	require.NoError(t, err)

	sm.Destroy(resumed)
	res2 := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res2, resumed))

	cleared := res2.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	// Session payload is gone: the next load yields an anonymous session.
	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.AddCookie(cookie)
	fresh, err := sm.Load(ctx, req3)
	require.NoError(t, err)
	assert.Zero(t, fresh.UserID())
}

func TestSessionLoadNullValuesPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := NewSessionManager(client, "test_session", time.Hour, false)
	ctx := context.Background()

	// A stored payload without values decodes to a nil map.
	require.NoError(t, client.Set(ctx, "session:legacy", `{"values":null,"user_id":9}`, time.Hour).Err())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "legacy"})
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(9), sess.UserID())

	sess.Set("theme", "dark")
	assert.Equal(t, "dark", sess.Get("theme"))

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))
}

func TestActorFromContext(t *testing.T) {
	assert.Zero(t, ActorFromContext(context.Background()))

	sess := &Session{values: map[string]string{}}
	sess.SetUser(7)
	ctx := ContextWithSession(context.Background(), sess)
	assert.Equal(t, int64(7), ActorFromContext(ctx))
}
