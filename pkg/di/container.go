// Package di provides dependency injection container
package di

import (
	"log/slog"

	"github.com/ssargent/bidcvc/pkg/api"     //nolint:depguard
	"github.com/ssargent/bidcvc/pkg/archive" //nolint:depguard
)

// ArchiveOpener opens the archive stored in dir.
type ArchiveOpener func(dir string, logger *slog.Logger) (*archive.Archive, error)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	archiveOpener ArchiveOpener
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serverFactory: api.NewServerFactory(),
		archiveOpener: openArchive,
	}
}

func openArchive(dir string, logger *slog.Logger) (*archive.Archive, error) {
	return archive.Open(dir, archive.Options{Sync: true, Logger: logger})
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// OpenArchive opens the archive in dir through the configured opener
func (c *Container) OpenArchive(dir string, logger *slog.Logger) (*archive.Archive, error) {
	return c.archiveOpener(dir, logger)
}

// SetArchiveOpener allows overriding how archives are opened (for testing)
func (c *Container) SetArchiveOpener(opener ArchiveOpener) {
	c.archiveOpener = opener
}
