package backend

import (
	"fmt"

	"finanse/internal/config"
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
		Type:           backendType,
		SQLiteDBPath:   appConfig.SQLiteDBPath,
		DatabaseURL:    appConfig.DatabaseURL,
		CategoriesFile: appConfig.DemoCategoriesFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for postgres backend")
		}
	case MemoryBackend:
		// An empty categories file seeds the default categories.
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, PostgresBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
