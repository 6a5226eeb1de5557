package svc

import "errors"

// ErrNoConnectorsEnabled 错误：没有启用任何交易所连接器
var ErrNoConnectorsEnabled = errors.New("no exchange connectors enabled")

// ErrNoSinksEnabled 错误：没有可用的告警输出
var ErrNoSinksEnabled = errors.New("no alert sinks enabled")

// ErrUnknownBackend 错误：未知的设置存储后端
var ErrUnknownBackend = errors.New("unknown settings backend")
