package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vision-gateway/service/config"
)

type localService struct {
	CfgSvc config.IService
}

func NewLocal(cfgsvc config.IService) IService {
	return &localService{
		CfgSvc: cfgsvc,
	}
}

func (svc *localService) StoreFile(fileName string, r io.Reader) (string, int64, error) {
	root := svc.CfgSvc.GetUploadRoot()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", 0, xerrors.Errorf("creating upload root: %w", err)
	}

	// Never trust the client file name beyond its extension
	relPath := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(fileName)))

	f, err := os.Create(filepath.Join(root, relPath))
	if err != nil {
		return "", 0, xerrors.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(f.Name())
		return "", 0, xerrors.Errorf("writing upload file: %w", err)
	}

	return relPath, n, nil
}

func (svc *localService) ResolvePath(relPath string) (string, error) {
	root, err := filepath.Abs(svc.CfgSvc.GetUploadRoot())
	if err != nil {
		return "", err
	}

	trimmed := strings.TrimLeft(relPath, `/\`)
	abs := filepath.Clean(filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(trimmed, `\`, "/"))))

	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", xerrors.Errorf("path %q escapes the upload root", relPath)
	}

	return abs, nil
}

func (svc *localService) Exists(absPath string) bool {
	info, err := os.Stat(absPath)
	return err == nil && !info.IsDir()
}
