package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsu-battle/internal/modules/battle/domain"
	"tsu-battle/internal/pkg/log"
	"tsu-battle/internal/pkg/metrics"
	"tsu-battle/internal/pkg/trace"
	"tsu-battle/internal/pkg/xerrors"
)

func newTestEcho(m *fakeManager, cfg HTTPConfig) *echo.Echo {
	httpMetrics := metrics.NewHTTPMetricsWithRegistry("test", prometheus.NewRegistry())
	return NewEcho(NewHTTPHandler(m, log.NewNopLogger()), httpMetrics, cfg, log.NewNopLogger())
}

func serve(e *echo.Echo, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHTTPHandler_StartAndGet(t *testing.T) {
	m := &fakeManager{}
	e := newTestEcho(m, HTTPConfig{})

	body := `{"participants":[{"id":"p1","kind":"player","team":"players","monster_ids":["sparky"]}],"seed":7}`
	rec := serve(e, http.MethodPost, "/api/v1/battles", body, map[string]string{"X-Trace-Id": "trace-http"})

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec.Body.Bytes())
	assert.Equal(t, xerrors.CodeSuccess.ToInt(), env.Code)
	assert.Equal(t, "trace-http", env.TraceId)
	assert.Equal(t, "trace-http", rec.Header().Get(trace.HeaderTraceID))
	require.Len(t, m.started, 1)
	assert.Equal(t, uint64(7), m.started[0].Seed)
	assert.Equal(t, []string{"trace-http"}, m.traceIDs)

	rec = serve(e, http.MethodGet, "/api/v1/battles/b-3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var b domain.Battle
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec.Body.Bytes()).Data, &b))
	assert.Equal(t, "b-3", b.ID)
}

func TestHTTPHandler_SubmitAction(t *testing.T) {
	t.Run("转发行动", func(t *testing.T) {
		m := &fakeManager{}
		e := newTestEcho(m, HTTPConfig{})

		rec := serve(e, http.MethodPost, "/api/v1/battles/b-1/actions", `{"kind":"attack","participant_id":"p1","move_id":"tackle"}`, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, m.submitted, 1)
		assert.Equal(t, "p1", m.submitted[0].ParticipantID)
	})

	t.Run("行动被拒绝返回 422 与可恢复标记", func(t *testing.T) {
		m := &fakeManager{err: xerrors.NewActionError(xerrors.CodeBattleMoveNoPP, "no pp")}
		e := newTestEcho(m, HTTPConfig{})

		rec := serve(e, http.MethodPost, "/api/v1/battles/b-1/actions?lang=en", `{"kind":"attack","participant_id":"p1","move_id":"tackle"}`, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decodeEnvelope(t, rec.Body.Bytes())
		assert.Equal(t, xerrors.CodeBattleMoveNoPP.ToInt(), env.Code)
		assert.Equal(t, "Move has no PP left", env.Message)
		assert.Equal(t, "no pp", env.Error)
		assert.True(t, env.Recoverable)
	})

	t.Run("请求体格式错误", func(t *testing.T) {
		m := &fakeManager{}
		e := newTestEcho(m, HTTPConfig{})

		rec := serve(e, http.MethodPost, "/api/v1/battles/b-1/actions", `{broken`, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, xerrors.CodeInvalidParams.ToInt(), decodeEnvelope(t, rec.Body.Bytes()).Code)
		assert.Empty(t, m.submitted)
	})
}

func TestHTTPHandler_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "战斗不存在", err: xerrors.NewBattleNotFoundError("b-x"), status: http.StatusNotFound},
		{name: "战斗已结束", err: xerrors.NewBattleNotActiveError("b-x", "completed"), status: http.StatusConflict},
		{name: "数据错误", err: xerrors.NewBattleDataError("monster", "m1", nil), status: http.StatusFailedDependency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(&fakeManager{err: tt.err}, HTTPConfig{})

			for _, target := range []string{"/api/v1/battles/b-x/advance", "/api/v1/battles/b-x/end"} {
				rec := serve(e, http.MethodPost, target, "", nil)
				assert.Equal(t, tt.status, rec.Code, target)
			}
		})
	}

	t.Run("未知路由", func(t *testing.T) {
		e := newTestEcho(&fakeManager{}, HTTPConfig{})
		rec := serve(e, http.MethodGet, "/api/v1/unknown", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, xerrors.CodeResourceNotFound.ToInt(), decodeEnvelope(t, rec.Body.Bytes()).Code)
	})
}

func TestHTTPHandler_ForceEnd(t *testing.T) {
	t.Run("无请求体", func(t *testing.T) {
		e := newTestEcho(&fakeManager{}, HTTPConfig{})
		rec := serve(e, http.MethodPost, "/api/v1/battles/b-5/end", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, string(decodeEnvelope(t, rec.Body.Bytes()).Data), `"cancelled"`)
	})

	t.Run("原因过长", func(t *testing.T) {
		e := newTestEcho(&fakeManager{}, HTTPConfig{})
		body := `{"reason":"` + strings.Repeat("x", 201) + `"}`
		rec := serve(e, http.MethodPost, "/api/v1/battles/b-5/end", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHTTPServer_Health(t *testing.T) {
	healthy := true
	e := newTestEcho(&fakeManager{}, HTTPConfig{Healthy: func() bool { return healthy }})

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/healthz", "", nil).Code)
	healthy = false
	assert.Equal(t, http.StatusServiceUnavailable, serve(e, http.MethodGet, "/healthz", "", nil).Code)

	rec := serve(e, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
