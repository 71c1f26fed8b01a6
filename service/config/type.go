package config

import "github.com/khaledhikmat/vision-gateway/model"

type IService interface {
	GetRuntimeEnv() string
	GetModeMaxShutdownTime() int
	GetHTTPAddr() string
	GetDataFolder() string
	GetUploadRoot() string
	GetLogFile() string
	GetLogLevel() string
	GetBackendURL(task model.Task) string
	GetBackendMode(task model.Task) model.TransportMode
	GetBackendTimeout() int
	GetMetricsWindow() int
	GetMetricsMaxOutputBytes() int
}
