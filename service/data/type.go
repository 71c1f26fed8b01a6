package data

import "github.com/khaledhikmat/vision-gateway/model"

type IService interface {
	// RetrieveUpload returns false when the id is unknown.
	RetrieveUpload(id string) (model.UploadRecord, bool, error)
	RetrieveUploads() ([]model.UploadRecord, error)
	NewUpload(rec model.UploadRecord) error

	NewError(err interface{}) error
}
