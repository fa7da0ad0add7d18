package ui

import (
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Background 可选的整页背景图. 读取失败时退化为纯色背景, 不报错
type Background struct {
	path string
	log  *zap.Logger

	mu    sync.RWMutex
	style template.CSS
}

// LoadBackground 读取背景图, 失败只记录debug日志
func LoadBackground(path string, log *zap.Logger) *Background {
	b := &Background{path: path, log: log}
	b.reload()
	return b
}

// Style 返回背景CSS声明, 无图片时为空
func (b *Background) Style() template.CSS {
	if b == nil {
		return ""
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.style
}

func (b *Background) reload() {
	style, err := backgroundStyle(b.path)
	if err != nil {
		b.log.Debug("background image unavailable", zap.String("path", b.path), zap.Error(err))
	}
	b.mu.Lock()
	b.style = style
	b.mu.Unlock()
}

func backgroundStyle(path string) (template.CSS, error) {
	if path == "" {
		return "", os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty image")
	}
	mime := http.DetectContentType(data)
	encoded := base64.StdEncoding.EncodeToString(data)
	return template.CSS(fmt.Sprintf(
		`background: linear-gradient(rgba(0,0,0,0.55), rgba(0,0,0,0.55)), url("data:%s;base64,%s"); `+
			`background-size: cover; background-position: center; background-attachment: fixed;`,
		mime, encoded)), nil
}

// Watch 监听图片所在目录, 文件创建或修改后重新加载. 阻塞直到ctx结束
func (b *Background) Watch(ctx context.Context) {
	if b.path == "" {
		return
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		b.log.Debug("background watch disabled", zap.Error(err))
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(b.path)
	if err := watcher.Add(dir); err != nil {
		b.log.Debug("background watch disabled", zap.String("dir", dir), zap.Error(err))
		return
	}

	target := filepath.Clean(b.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				b.reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			b.log.Debug("background watch error", zap.Error(err))
		}
	}
}
