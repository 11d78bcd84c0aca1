package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite 错误包测试套件
type ErrorsTestSuite struct {
	suite.Suite
}

// 测试创建新错误
func (suite *ErrorsTestSuite) TestNew() {
	err := New(ErrInvalidParam)
	suite.NotNil(err)
	suite.Equal(ErrInvalidParam, err.Code)
	suite.Equal("无效的参数", err.Message)
	suite.Empty(err.Details)

	// 多个详情
	err = New(ErrInvalidConfiguration, "卷轴为空", "reel=2")
	suite.Equal("卷轴为空; reel=2", err.Details)
}

// 测试格式化错误创建
func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrInvalidConfiguration, "支付线 %d 的行索引 %d 越界", 3, 7)
	suite.Equal(ErrInvalidConfiguration, err.Code)
	suite.Equal("支付线 3 的行索引 7 越界", err.Details)
}

// 测试错误包装
func (suite *ErrorsTestSuite) TestWrap() {
	originalErr := errors.New("原始错误")
	wrappedErr := Wrap(originalErr, ErrDatabaseQuery)
	suite.Equal(ErrDatabaseQuery, wrappedErr.Code)
	suite.Equal("原始错误", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)

	suite.Nil(Wrap(nil, ErrUnknown))

	// 包装已有的AppError，保留原始错误码
	appErr := New(ErrNotFound, "记录不存在")
	wrappedAppErr := Wrap(appErr, ErrInvalidParam, "额外信息")
	suite.Equal(ErrNotFound, wrappedAppErr.Code)
	suite.Contains(wrappedAppErr.Details, "额外信息")
}

// 测试格式化错误包装
func (suite *ErrorsTestSuite) TestWrapf() {
	originalErr := errors.New("连接超时")
	wrappedErr := Wrapf(originalErr, ErrDatabaseConnect, "数据库 %s 连接失败", "sqlite")
	suite.Equal(ErrDatabaseConnect, wrappedErr.Code)
	suite.Equal("数据库 sqlite 连接失败", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)
}

// 测试错误码判断（支持fmt包装链）
func (suite *ErrorsTestSuite) TestIs() {
	err := New(ErrInvalidConfiguration)
	suite.True(Is(err, ErrInvalidConfiguration))
	suite.False(Is(err, ErrNotFound))
	suite.False(Is(nil, ErrInvalidConfiguration))
	suite.False(Is(errors.New("标准错误"), ErrUnknown))

	chained := fmt.Errorf("spin 3: %w", err)
	suite.True(Is(chained, ErrInvalidConfiguration))
}

// 测试获取错误码
func (suite *ErrorsTestSuite) TestGetCode() {
	suite.Equal(ErrSpinFailed, GetCode(New(ErrSpinFailed)))
	suite.Equal(ErrUnknown, GetCode(errors.New("标准错误")))
	suite.Equal(ErrorCode(0), GetCode(nil))
}

// 测试As
func (suite *ErrorsTestSuite) TestAs() {
	suite.Nil(As(nil))

	appErr := New(ErrNotFound)
	suite.Same(appErr, As(fmt.Errorf("外层: %w", appErr)))

	plain := As(errors.New("普通错误"))
	suite.Equal(ErrUnknown, plain.Code)
	suite.Equal("普通错误", plain.Details)
}

// 测试错误消息
func (suite *ErrorsTestSuite) TestError() {
	err := &AppError{
		Code:    ErrNotFound,
		Message: "资源未找到",
	}
	suite.Equal("[1002] 资源未找到", err.Error())

	err.Details = "round_id: abc"
	suite.Equal("[1002] 资源未找到: round_id: abc", err.Error())
}

// 测试Unwrap
func (suite *ErrorsTestSuite) TestUnwrap() {
	originalErr := errors.New("原始错误")
	wrappedErr := Wrap(originalErr, ErrUnknown)
	suite.Equal(originalErr, wrappedErr.Unwrap())
	suite.True(errors.Is(wrappedErr, originalErr))

	suite.Nil(New(ErrUnknown).Unwrap())
}

// 测试WithDetails与WithCause
func (suite *ErrorsTestSuite) TestWithDetailsAndCause() {
	err := New(ErrInvalidParam).WithDetails("spins必须大于0")
	suite.Equal("spins必须大于0", err.Details)

	cause := errors.New("SQL语法错误")
	err2 := New(ErrDatabaseQuery).WithCause(cause)
	suite.Equal(cause, err2.Cause)
	suite.Equal("SQL语法错误", err2.Details)

	err3 := New(ErrDatabaseQuery, "查询失败").WithCause(cause)
	suite.Equal("查询失败", err3.Details)
}

// 测试HTTP状态码映射
func (suite *ErrorsTestSuite) TestHTTPStatus() {
	testCases := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrInvalidParam, 400},
		{ErrAlreadyExists, 400},
		{ErrNotFound, 404},
		{ErrTimeout, 408},
		{ErrReplayMismatch, 409},
		{ErrNotImplemented, 501},
		{ErrInvalidConfiguration, 422},
		{ErrDatabaseConnect, 503},
		{ErrSpinFailed, 500},
		{ErrUnknown, 500},
	}

	for _, tc := range testCases {
		err := New(tc.code)
		suite.Equal(tc.expected, err.HTTPStatus(), "错误码 %d 应该返回HTTP状态码 %d", tc.code, tc.expected)
	}
}

// 测试可重试判断
func (suite *ErrorsTestSuite) TestIsRetryable() {
	for _, code := range []ErrorCode{ErrTimeout, ErrWebSocketConnect, ErrDatabaseConnect} {
		suite.True(IsRetryable(New(code)), "错误码 %d 应该是可重试的", code)
	}
	for _, code := range []ErrorCode{ErrInvalidParam, ErrInvalidConfiguration, ErrSpinFailed} {
		suite.False(IsRetryable(New(code)), "错误码 %d 不应该是可重试的", code)
	}
	suite.False(IsRetryable(nil))
}

// 测试严重错误判断
func (suite *ErrorsTestSuite) TestIsCritical() {
	for _, code := range []ErrorCode{ErrDatabaseConnect, ErrConfigLoad, ErrConfigMissing, ErrConfigValidate, ErrInvalidConfiguration} {
		suite.True(IsCritical(New(code)), "错误码 %d 应该是严重错误", code)
	}
	for _, code := range []ErrorCode{ErrInvalidParam, ErrNotFound, ErrTimeout, ErrCanceled} {
		suite.False(IsCritical(New(code)), "错误码 %d 不应该是严重错误", code)
	}
	suite.False(IsCritical(nil))
}

// 测试调用栈捕获
func (suite *ErrorsTestSuite) TestStackCapture() {
	err := New(ErrUnknown)
	suite.Greater(len(err.Stack), 0)
	suite.NotEmpty(err.GetStack())
}

// 测试错误响应
func (suite *ErrorsTestSuite) TestErrorResponse() {
	err := New(ErrNotFound, "回合不存在")
	response := NewErrorResponse(err, "req-123")

	suite.False(response.Success)
	suite.Equal(err, response.Error)
	suite.Equal("req-123", response.RequestID)
	suite.Greater(response.Timestamp, int64(0))
}

// 测试未知错误码
func (suite *ErrorsTestSuite) TestUnknownErrorCode() {
	err := New(ErrorCode(99999))
	suite.Equal(ErrorCode(99999), err.Code)
	suite.Equal("未知错误", err.Message)
}

// 测试游戏相关错误
func (suite *ErrorsTestSuite) TestGameErrors() {
	gameErrors := map[ErrorCode]string{
		ErrInvalidConfiguration: "无效的机器配置",
		ErrSpinFailed:           "旋转失败",
		ErrSimulationFailed:     "批量模拟失败",
		ErrReplayMismatch:       "回放结果不一致",
	}

	for code, expectedMsg := range gameErrors {
		suite.Equal(expectedMsg, New(code).Message)
	}
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}
