package backend

import (
	"fmt"

	"fintrack/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		DataFile:     appConfig.DataFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresDSN:  appConfig.PostgresDSN,
	}, nil
}

// MirrorFromAppConfig converts the application config to mirror config
func MirrorFromAppConfig(appConfig *config.Config) (MirrorConfig, error) {
	if appConfig == nil {
		return MirrorConfig{}, fmt.Errorf("app config is nil")
	}

	mirrorType := MirrorType(appConfig.MirrorBackend)
	if !mirrorType.IsValid() {
		return MirrorConfig{}, fmt.Errorf("invalid mirror type in config: %s", appConfig.MirrorBackend)
	}

	return MirrorConfig{
		Type:                     mirrorType,
		SQLiteDBPath:             appConfig.SQLiteDBPath,
		PostgresDSN:              appConfig.PostgresDSN,
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case CSVBackend:
		if c.DataFile == "" {
			return fmt.Errorf("data file is required for csv backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres DSN is required for postgres backend")
		}
	case MemoryBackend:
		// nothing to configure
	}

	return nil
}

// Validate validates the mirror configuration
func (c MirrorConfig) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid mirror type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteMirror:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite mirror")
		}
	case PostgresMirror:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres DSN is required for postgres mirror")
		}
	case SheetsMirror:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets mirror")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			return fmt.Errorf("either GoogleServiceAccountFile or GoogleServiceAccountJSON must be provided for sheets mirror")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{CSVBackend, MemoryBackend, SQLiteBackend, PostgresBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
