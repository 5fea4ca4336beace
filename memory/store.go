package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Store 是记忆条目的持久化后端：启动时读取一次，
// 每次变更操作后整体重写。
type Store interface {
	// Load 读取全部条目。缺失的底层存储返回空集而不是错误。
	Load(ctx context.Context) ([]*Entry, error)
	// Save 原子性地重写全部条目。
	Save(ctx context.Context, entries []*Entry) error
}

// FileStore 将条目持久化为单个 JSON 数组文件。
// 写入先落临时文件再 rename，保证崩溃时不残留半截文件。
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore 创建文件存储。
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:   path,
		logger: logger.With(zap.String("component", "memory_file_store"), zap.String("path", path)),
	}
}

// Load 读取条目。文件缺失返回空集；文件损坏记日志后返回空集，从不崩溃。
func (s *FileStore) Load(_ context.Context) ([]*Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read memory file: %w", err)
	}

	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("memory file malformed, starting empty", zap.Error(err))
		return nil, nil
	}
	return entries, nil
}

// Save 原子性地重写条目文件。
func (s *FileStore) Save(_ context.Context, entries []*Entry) error {
	if entries == nil {
		entries = []*Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal memory entries: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create memory dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".memory-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp memory file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write memory file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close memory file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace memory file: %w", err)
	}
	return nil
}
