package backend

import (
	"errors"
	"fmt"
	"time"

	"dompet/internal/config"
)

// Config is the subset of the application config the factory needs.
type Config struct {
	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	PublicOrigin     string
	InviteTTL        time.Duration
	SummaryCacheTTL  time.Duration
	SummaryCacheSize int
	SeedDemoData     bool

	Exporter                 ExporterType
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	exporter := ExporterType(appConfig.ExportBackend)
	if !exporter.IsValid() {
		return Config{}, fmt.Errorf("invalid export backend in config: %s", appConfig.ExportBackend)
	}

	return Config{
		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		PublicOrigin:     appConfig.PublicOrigin,
		InviteTTL:        appConfig.InviteTTL,
		SummaryCacheTTL:  appConfig.SummaryCacheTTL,
		SummaryCacheSize: appConfig.SummaryCacheSize,
		SeedDemoData:     appConfig.SeedDemoData,

		Exporter:                 exporter,
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required")
	}
	if c.InviteTTL <= 0 {
		return errors.New("invite TTL must be positive")
	}
	if !c.Exporter.IsValid() {
		return fmt.Errorf("invalid export backend: %s", c.Exporter)
	}
	if c.Exporter == SheetsExporter && c.GoogleSpreadsheetID == "" {
		return errors.New("Google Spreadsheet ID is required for the sheets exporter")
	}
	return nil
}
