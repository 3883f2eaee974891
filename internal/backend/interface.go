package backend

import (
	"dompet/internal/amqp"
	"dompet/internal/cache"
	"dompet/internal/services"
	"dompet/internal/storage"
)

// CleanupFunc releases resources acquired by the factory.
type CleanupFunc func() error

// App is the wired service graph shared by the server and the worker.
type App struct {
	Repo *storage.SQLiteRepository
	// AMQP is nil when no broker is configured or it could not be reached.
	AMQP   *amqp.Client
	Caches *cache.Manager

	Accounts   *services.AccountService
	Profiles   *services.ProfileService
	Groups     *services.GroupService
	Invites    *services.InviteService
	Categories *services.CategoryService
	Ledger     *services.LedgerService

	Cleanup CleanupFunc
}

// ExporterType selects where the worker mirrors ledger entries.
type ExporterType string

const (
	SheetsExporter ExporterType = "sheets"
	MemoryExporter ExporterType = "memory"
)

func (t ExporterType) String() string {
	return string(t)
}

func (t ExporterType) IsValid() bool {
	switch t {
	case SheetsExporter, MemoryExporter:
		return true
	default:
		return false
	}
}
