package filestorage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ozan/classpoint/internal/pkg/logger"
)

// StoredFile describes a saved submission file.
type StoredFile struct {
	Path string // Path relative to the storage root, as persisted
	URL  string // Publicly accessible URL
}

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveFile saves an uploaded file under the given subdirectory and
	// returns where it was stored.
	SaveFile(fileHeader *multipart.FileHeader, subPath string) (*StoredFile, error)

	// DeleteFile removes a previously stored file. Deleting a missing
	// file is not an error.
	DeleteFile(path string) error
}

// LocalStorage stores files on the local filesystem and serves them from
// a static route. It satisfies FileStorage.
type LocalStorage struct {
	basePath string // Root directory where files are stored
	baseURL  string // Base URL under which basePath is served
}

// NewLocalStorage creates a LocalStorage rooted at basePath.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// SaveFile writes the uploaded file under basePath/subPath with a unique
// name and returns its stored path and URL.
func (ls *LocalStorage) SaveFile(fileHeader *multipart.FileHeader, subPath string) (*StoredFile, error) {
	if fileHeader == nil {
		return nil, fmt.Errorf("no file provided")
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to open uploaded file")
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	dirPath := ls.basePath
	if subPath != "" {
		dirPath = filepath.Join(ls.basePath, subPath)
		if err := os.MkdirAll(dirPath, os.ModePerm); err != nil {
			logger.Error().Err(err).Str("path", dirPath).Msg("Failed to create subdirectory")
			return nil, fmt.Errorf("failed to create subdirectory: %w", err)
		}
	}

	// Unique filename to prevent collisions between uploads
	ext := filepath.Ext(fileHeader.Filename)
	uniqueFilename := uuid.New().String() + ext
	dstPath := filepath.Join(dirPath, uniqueFilename)

	dst, err := os.Create(dstPath)
	if err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create destination file")
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to copy uploaded file content")
		_ = os.Remove(dstPath)
		return nil, fmt.Errorf("failed to save file content: %w", err)
	}

	relPath := uniqueFilename
	if subPath != "" {
		relPath = subPath + "/" + uniqueFilename
	}

	stored := &StoredFile{
		Path: relPath,
		URL:  ls.baseURL + "/" + relPath,
	}

	logger.Info().Str("filename", fileHeader.Filename).Str("saved_as", relPath).Msg("File saved")
	return stored, nil
}

// DeleteFile removes a stored file. Missing files are treated as already
// deleted.
func (ls *LocalStorage) DeleteFile(path string) error {
	if path == "" {
		return nil
	}

	physicalPath := filepath.Join(ls.basePath, filepath.FromSlash(path))

	if _, err := os.Stat(physicalPath); os.IsNotExist(err) {
		logger.Warn().Str("path", physicalPath).Msg("File to delete does not exist")
		return nil
	}

	if err := os.Remove(physicalPath); err != nil {
		logger.Error().Err(err).Str("path", physicalPath).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
