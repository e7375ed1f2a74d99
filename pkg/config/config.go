package config

import (
	"encoding/json"
	"os"
	"os/user"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	CollectionPath string `json:"collectionPath"`
	CacheDir       string `json:"cacheDir"`
}

// GetDefaultCollectionPath returns the default path of the JSON
// collection file.
func GetDefaultCollectionPath() string {
	currentUser, err := user.Current()
	if err != nil {
		return filepath.Join("./data", "documents.json")
	}

	documentsDir := filepath.Join(currentUser.HomeDir, "Documents")

	// Create the default inkwell data directory in Documents
	defaultDir := filepath.Join(documentsDir, "Inkwell")
	if err := os.MkdirAll(defaultDir, 0755); err != nil {
		// Fall back to relative path if we can't create in Documents
		return filepath.Join("./data", "documents.json")
	}

	return filepath.Join(defaultDir, "documents.json")
}

// GetDefaultCacheDir returns the default directory for rich cache files.
func GetDefaultCacheDir() string {
	currentUser, err := user.Current()
	if err != nil {
		return filepath.Join("./data", "cache")
	}

	cacheDir := filepath.Join(currentUser.HomeDir, ".cache", "inkwell")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return filepath.Join("./data", "cache")
	}

	return cacheDir
}

// GetConfigFilePath returns the path where the config file should be stored
func GetConfigFilePath() string {
	currentUser, err := user.Current()
	if err != nil {
		return "./config.json"
	}

	// Use .config/inkwell directory for all platforms
	configDir := filepath.Join(currentUser.HomeDir, ".config")
	configPath := filepath.Join(configDir, "inkwell")

	if err := os.MkdirAll(configPath, 0755); err != nil {
		return "./config.json"
	}

	return filepath.Join(configPath, "config")
}

// Load loads configuration from file, using defaults if file doesn't
// exist. A .env file and INKWELL_* environment variables override the
// stored values.
func Load() (*Config, error) {
	// Optional .env in the working directory; absence is fine
	_ = godotenv.Load()

	config := &Config{
		CollectionPath: GetDefaultCollectionPath(),
		CacheDir:       GetDefaultCacheDir(),
	}

	configFile := GetConfigFilePath()
	if data, err := os.ReadFile(configFile); err == nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("INKWELL_COLLECTION_PATH"); v != "" {
		config.CollectionPath = v
	}
	if v := os.Getenv("INKWELL_CACHE_DIR"); v != "" {
		config.CacheDir = v
	}

	// Ensure directories exist
	if err := os.MkdirAll(filepath.Dir(config.CollectionPath), 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(config.CacheDir, 0755); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves the configuration to file
func (c *Config) Save() error {
	configFile := GetConfigFilePath()

	configDir := filepath.Dir(configFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configFile, data, 0644)
}
