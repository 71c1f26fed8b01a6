package config

import (
	"path/filepath"
	"strings"

	"github.com/khaledhikmat/vision-gateway/model"
)

const (
	defaultPlayerURL          = "http://127.0.0.1:8001"
	defaultCrowdURL           = "http://127.0.0.1:8002"
	defaultBackendMode        = "path"
	defaultBackendTimeout     = 600
	defaultMetricsWindow      = 100
	defaultMaxOutputBytes     = 0
	defaultHTTPAddr           = ":8000"
	defaultDataFolder         = "./data"
	defaultLogLevel           = "info"
	defaultModeMaxShutdownSec = 5
)

// hardcodedService serves the defaults. Tests override individual fields.
type hardcodedService struct {
	PlayerURL      string
	PlayerMode     model.TransportMode
	CrowdURL       string
	CrowdMode      model.TransportMode
	BackendTimeout int
	MetricsWindow  int
	MaxOutputBytes int
	DataFolder     string
}

func NewHardCoded() IService {
	return &hardcodedService{
		PlayerURL:      defaultPlayerURL,
		PlayerMode:     model.ModePath,
		CrowdURL:       defaultCrowdURL,
		CrowdMode:      model.ModePath,
		BackendTimeout: defaultBackendTimeout,
		MetricsWindow:  defaultMetricsWindow,
		MaxOutputBytes: defaultMaxOutputBytes,
		DataFolder:     defaultDataFolder,
	}
}

// NewStatic is NewHardCoded with the backends and data folder replaced.
func NewStatic(playerURL string, playerMode model.TransportMode, crowdURL string, crowdMode model.TransportMode, dataFolder string) IService {
	return &hardcodedService{
		PlayerURL:      playerURL,
		PlayerMode:     playerMode,
		CrowdURL:       crowdURL,
		CrowdMode:      crowdMode,
		BackendTimeout: defaultBackendTimeout,
		MetricsWindow:  defaultMetricsWindow,
		MaxOutputBytes: defaultMaxOutputBytes,
		DataFolder:     dataFolder,
	}
}

func (svc *hardcodedService) GetRuntimeEnv() string {
	return "dev"
}

func (svc *hardcodedService) GetModeMaxShutdownTime() int {
	return defaultModeMaxShutdownSec
}

func (svc *hardcodedService) GetHTTPAddr() string {
	return defaultHTTPAddr
}

func (svc *hardcodedService) GetDataFolder() string {
	return svc.DataFolder
}

func (svc *hardcodedService) GetUploadRoot() string {
	return filepath.Join(svc.DataFolder, "uploads")
}

func (svc *hardcodedService) GetLogFile() string {
	return ""
}

func (svc *hardcodedService) GetLogLevel() string {
	return defaultLogLevel
}

func (svc *hardcodedService) GetBackendURL(task model.Task) string {
	if task == model.TaskCrowd {
		return svc.CrowdURL
	}
	return svc.PlayerURL
}

func (svc *hardcodedService) GetBackendMode(task model.Task) model.TransportMode {
	if task == model.TaskCrowd {
		return svc.CrowdMode
	}
	return svc.PlayerMode
}

func (svc *hardcodedService) GetBackendTimeout() int {
	return svc.BackendTimeout
}

func (svc *hardcodedService) GetMetricsWindow() int {
	return svc.MetricsWindow
}

func (svc *hardcodedService) GetMetricsMaxOutputBytes() int {
	return svc.MaxOutputBytes
}

// parseMode treats anything but "multipart" as path mode.
func parseMode(s string) model.TransportMode {
	if strings.ToLower(strings.TrimSpace(s)) == string(model.ModeMultipart) {
		return model.ModeMultipart
	}
	return model.ModePath
}
