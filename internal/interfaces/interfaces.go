// Package interfaces defines common interface types used across the application.
package interfaces

import (
	"github.com/darrenwiens/env-canada/internal/sources"
)

// SourceManager runs the configured sources and exposes their current state
type SourceManager interface {
	StartSources() error
	Statuses() []sources.Status
	Snapshot(name string) (interface{}, bool)
	Updates() []sources.Update
}
