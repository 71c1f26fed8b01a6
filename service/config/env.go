package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/khaledhikmat/vision-gateway/model"
)

type envService struct {
	v *viper.Viper
}

// NewEnv reads configuration from environment variables. Call godotenv
// before this if a .env file should be honoured.
func NewEnv() IService {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("RUN_TIME_ENV", "dev")
	v.SetDefault("PLAYER_SVC_URL", defaultPlayerURL)
	v.SetDefault("PLAYER_SVC_MODE", defaultBackendMode)
	v.SetDefault("CROWD_SVC_URL", defaultCrowdURL)
	v.SetDefault("CROWD_SVC_MODE", defaultBackendMode)
	v.SetDefault("BACKEND_TIMEOUT_SECONDS", defaultBackendTimeout)
	v.SetDefault("METRICS_WINDOW", defaultMetricsWindow)
	v.SetDefault("METRICS_MAX_OUTPUT_BYTES", defaultMaxOutputBytes)
	v.SetDefault("HTTP_ADDR", defaultHTTPAddr)
	v.SetDefault("DATA_FOLDER", defaultDataFolder)
	v.SetDefault("UPLOAD_ROOT", "")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("MODE_MAX_SHUTDOWN_SECONDS", defaultModeMaxShutdownSec)

	return &envService{v: v}
}

func (svc *envService) GetRuntimeEnv() string {
	return svc.v.GetString("RUN_TIME_ENV")
}

func (svc *envService) GetModeMaxShutdownTime() int {
	return svc.v.GetInt("MODE_MAX_SHUTDOWN_SECONDS")
}

func (svc *envService) GetHTTPAddr() string {
	return svc.v.GetString("HTTP_ADDR")
}

func (svc *envService) GetDataFolder() string {
	return svc.v.GetString("DATA_FOLDER")
}

func (svc *envService) GetUploadRoot() string {
	if root := svc.v.GetString("UPLOAD_ROOT"); root != "" {
		return root
	}
	return filepath.Join(svc.GetDataFolder(), "uploads")
}

func (svc *envService) GetLogFile() string {
	return svc.v.GetString("LOG_FILE")
}

func (svc *envService) GetLogLevel() string {
	return strings.ToLower(svc.v.GetString("LOG_LEVEL"))
}

func (svc *envService) GetBackendURL(task model.Task) string {
	key := "PLAYER_SVC_URL"
	if task == model.TaskCrowd {
		key = "CROWD_SVC_URL"
	}
	return strings.TrimRight(svc.v.GetString(key), "/")
}

func (svc *envService) GetBackendMode(task model.Task) model.TransportMode {
	key := "PLAYER_SVC_MODE"
	if task == model.TaskCrowd {
		key = "CROWD_SVC_MODE"
	}
	return parseMode(svc.v.GetString(key))
}

func (svc *envService) GetBackendTimeout() int {
	return svc.v.GetInt("BACKEND_TIMEOUT_SECONDS")
}

func (svc *envService) GetMetricsWindow() int {
	if w := svc.v.GetInt("METRICS_WINDOW"); w > 0 {
		return w
	}
	return defaultMetricsWindow
}

func (svc *envService) GetMetricsMaxOutputBytes() int {
	return svc.v.GetInt("METRICS_MAX_OUTPUT_BYTES")
}
