package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/wfunc/dream-slot/internal/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSlotHandler_RespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name       string
		err        error
		status     int
		retryAfter string
		logged     bool
		withStack  bool
	}{
		{"数据库不可用", apperrors.New(apperrors.ErrDatabaseConnect, "连接被拒绝"), http.StatusServiceUnavailable, retryAfterSeconds, true, true},
		{"机器配置错误", apperrors.New(apperrors.ErrInvalidConfiguration), http.StatusUnprocessableEntity, "", true, true},
		{"超时", apperrors.New(apperrors.ErrTimeout), http.StatusRequestTimeout, retryAfterSeconds, false, false},
		{"旋转失败", apperrors.New(apperrors.ErrSpinFailed), http.StatusInternalServerError, "", true, false},
		{"回合不存在", apperrors.New(apperrors.ErrNotFound), http.StatusNotFound, "", false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			h := NewSlotHandler(nil, zap.New(core))

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			h.respondError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.retryAfter, w.Header().Get("Retry-After"))

			var resp errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, int(apperrors.GetCode(tc.err)), resp.Error.Code)
			assert.Empty(t, resp.Error.Stack)

			if !tc.logged {
				assert.Equal(t, 0, logs.Len())
				return
			}
			require.Equal(t, 1, logs.Len())
			stack, ok := logs.All()[0].ContextMap()["stack"]
			assert.Equal(t, tc.withStack, ok)
			if tc.withStack {
				assert.NotEmpty(t, stack)
			}
		})
	}
}
