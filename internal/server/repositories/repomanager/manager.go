package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/codifyr/internal/dbx"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/actiontokens"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/users"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/verifications"
)

// RepositoryManager binds repositories to a *sql.DB or a *sql.Tx, so
// services can run several of them inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Verifications(db dbx.DBTX) verifications.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	ActionTokens(db dbx.DBTX) actiontokens.Repository
}
