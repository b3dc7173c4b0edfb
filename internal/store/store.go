package store

import (
	"context"
	"errors"

	"github.com/kiranshivaraju/testopsbot/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateProject = errors.New("project already added")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	IsUserAllowed(ctx context.Context, username string) (bool, error)
	// AddAllowedUser is idempotent.
	AddAllowedUser(ctx context.Context, username string) error
	RemoveAllowedUser(ctx context.Context, username string) (bool, error)
	ListAllowedUsers(ctx context.Context) ([]string, error)

	GetUserProjects(ctx context.Context, userID int64) ([]*models.Project, error)
	FindProject(ctx context.Context, userID, projectID int64) (*models.Project, error)
	AddProject(ctx context.Context, userID, projectID int64, projectName string) error
	// DeleteProject reports whether a project owned by userID was removed.
	DeleteProject(ctx context.Context, userID, projectID int64) (bool, error)
}
