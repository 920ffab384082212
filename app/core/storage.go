package core

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/easy-dataset/easy-dataset/pkg/errors"
)

// Mirror 对象存储镜像，可选
type Mirror interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// FileStorage 项目文件存储：<root>/<projectId>/files/<name>
type FileStorage struct {
	root   string
	mirror Mirror
}

func NewFileStorage(root string, mirror Mirror) *FileStorage {
	return &FileStorage{root: root, mirror: mirror}
}

func (s *FileStorage) FilesDir(projectID string) string {
	return filepath.Join(s.root, projectID, "files")
}

func (s *FileStorage) key(projectID, name string) string {
	return fmt.Sprintf("%s/files/%s", projectID, name)
}

// resolve 拒绝跳出项目目录的相对路径
func (s *FileStorage) resolve(projectID, name string) (string, error) {
	if projectID == "" || name == "" {
		return "", errors.Parameter("project id and file name are required")
	}
	clean := filepath.Clean("/" + name)
	if strings.Contains(name, "..") || clean == "/" {
		return "", errors.Parameter("invalid file name %q", name)
	}
	return filepath.Join(s.FilesDir(projectID), strings.TrimPrefix(clean, "/")), nil
}

type SavedFile struct {
	Path string
	Size int64
	MD5  string
}

func (s *FileStorage) Save(ctx context.Context, projectID, name string, body io.Reader) (*SavedFile, error) {
	target, err := s.resolve(projectID, name)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}

	f, err := os.Create(target)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hash := md5.New()
	size, err := io.Copy(io.MultiWriter(f, hash), body)
	if err != nil {
		return nil, err
	}

	saved := &SavedFile{
		Path: target,
		Size: size,
		MD5:  hex.EncodeToString(hash.Sum(nil)),
	}
	s.mirrorUpload(ctx, projectID, name, target)
	return saved, nil
}

func (s *FileStorage) mirrorUpload(ctx context.Context, projectID, name, path string) {
	if s.mirror == nil {
		return
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err = s.mirror.Upload(ctx, s.key(projectID, name), bytes.NewReader(raw)); err != nil {
		slog.Warn("failed to mirror project file",
			slog.String("project_id", projectID),
			slog.String("file", name),
			slog.String("error", err.Error()))
	}
}

// ReadFile 读取项目文件，本地缺失且配置了镜像时从镜像恢复
func (s *FileStorage) ReadFile(ctx context.Context, projectID, name string) ([]byte, error) {
	target, err := s.resolve(projectID, name)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(target)
	if err == nil || !os.IsNotExist(err) || s.mirror == nil {
		return raw, err
	}

	raw, mirrorErr := s.mirror.Download(ctx, s.key(projectID, name))
	if mirrorErr != nil {
		return nil, err
	}
	if err = os.MkdirAll(filepath.Dir(target), 0o755); err == nil {
		_ = os.WriteFile(target, raw, 0o644)
	}
	return raw, nil
}

func (s *FileStorage) Delete(ctx context.Context, projectID, name string) error {
	target, err := s.resolve(projectID, name)
	if err != nil {
		return err
	}
	if err = os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	if s.mirror != nil {
		return s.mirror.Delete(ctx, s.key(projectID, name))
	}
	return nil
}
