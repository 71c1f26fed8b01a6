package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vision-gateway/model"
	"github.com/khaledhikmat/vision-gateway/service/config"
)

const (
	uploadsFile = "uploads"
	errorsFile  = "errors"
)

type filesDBService struct {
	CfgSvc config.IService
	mu     sync.Mutex
}

// NewFilesDB keeps each entity kind in its own JSON array file under the data folder.
func NewFilesDB(cfgsvc config.IService) IService {
	return &filesDBService{
		CfgSvc: cfgsvc,
	}
}

func (svc *filesDBService) RetrieveUploads() ([]model.UploadRecord, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return retrieveEntities[model.UploadRecord](uploadsFile, svc.CfgSvc)
}

func (svc *filesDBService) RetrieveUpload(id string) (model.UploadRecord, bool, error) {
	uploads, err := svc.RetrieveUploads()
	if err != nil {
		return model.UploadRecord{}, false, err
	}

	for _, upload := range uploads {
		if upload.ID == id {
			return upload, true, nil
		}
	}

	return model.UploadRecord{}, false, nil
}

func (svc *filesDBService) NewUpload(rec model.UploadRecord) error {
	if rec.ID == "" {
		return xerrors.New("upload record has no id")
	}

	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	return newEntity(rec, uploadsFile, svc.CfgSvc)
}

func (svc *filesDBService) NewError(err interface{}) error {
	// Determine if the error is custom
	var customErr model.CustomError
	switch e := err.(type) {
	case model.CustomError:
		customErr = e
	case error:
		customErr.Processor = "N/A"
		customErr.Inner = e
		customErr.Message = e.Error()
		customErr.StackTrace = "N/A"
	default:
		return xerrors.Errorf("unsupported error type %T", err)
	}

	inner := ""
	if customErr.Inner != nil {
		inner = customErr.Inner.Error()
	}

	// Create an error object to persist
	errorData := struct {
		Timestamp  int64                  `json:"timestamp"`
		Processor  string                 `json:"processor"`
		Inner      string                 `json:"innerError"`
		Message    string                 `json:"message"`
		StackTrace string                 `json:"stackTrace"`
		Misc       map[string]interface{} `json:"misc"`
	}{
		Timestamp:  time.Now().Unix(),
		Processor:  customErr.Processor,
		Inner:      inner,
		Message:    customErr.Message,
		StackTrace: customErr.StackTrace,
		Misc:       customErr.Misc,
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	return newEntity(errorData, errorsFile, svc.CfgSvc)
}

func entityFile(filename string, cfgsvc config.IService) string {
	return filepath.Join(cfgsvc.GetDataFolder(), fmt.Sprintf("%s.json", filename))
}

func newEntity[T any](entity T, filename string, cfgsvc config.IService) error {
	entities, err := retrieveEntities[T](filename, cfgsvc)
	if err != nil {
		return err
	}

	entities = append(entities, entity)

	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgsvc.GetDataFolder(), 0o755); err != nil {
		return err
	}

	// Write to a sibling file and rename so readers never see a torn file
	output := entityFile(filename, cfgsvc)
	tmp := output + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, output)
}

func retrieveEntities[T any](filename string, cfgsvc config.IService) ([]T, error) {
	entities := []T{}

	data, err := os.ReadFile(entityFile(filename, cfgsvc))
	if errors.Is(err, os.ErrNotExist) {
		return entities, nil
	}
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return entities, nil
	}

	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, xerrors.Errorf("corrupt %s store: %w", filename, err)
	}

	return entities, nil
}
