// Package publish persists written files to a version-controlled remote.
package publish

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Publisher commits and pushes the whole working tree.
type Publisher interface {
	Prepare(ctx context.Context) error
	Publish(ctx context.Context, message string) error
}

// FilePublisher creates or updates a single remote file.
type FilePublisher interface {
	PutFile(ctx context.Context, path string, content []byte, message string) error
}

// Noop is used when no publishing credential is configured.
type Noop struct {
	Logger *zap.Logger
}

func (n Noop) logger() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}

func (n Noop) Prepare(ctx context.Context) error {
	n.logger().Info("no publishing credential, running in local mode")
	return nil
}

func (n Noop) Publish(ctx context.Context, message string) error {
	n.logger().Info("no publishing credential, skipping push", zap.String("message", message))
	return nil
}

func (n Noop) PutFile(ctx context.Context, path string, content []byte, message string) error {
	n.logger().Info("no publishing credential, skipping upload", zap.String("path", path))
	return nil
}

// RemoteURL returns the authenticated clone URL of a GitHub repository.
func RemoteURL(token, repo string) string {
	return fmt.Sprintf("https://%s@github.com/%s.git", token, repo)
}
