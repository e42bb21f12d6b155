package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/linkdrop/internal/dbx"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/favorites"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/files"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/notifications"
	"github.com/dmitrijs2005/linkdrop/internal/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Files(db dbx.DBTX) files.Repository
	Users(db dbx.DBTX) users.Repository
	Favorites(db dbx.DBTX) favorites.Repository
	Notifications(db dbx.DBTX) notifications.Repository
}
