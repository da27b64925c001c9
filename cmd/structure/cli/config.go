/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tomoncle/structure/database"
	"github.com/tomoncle/structure/translation"
	"github.com/tomoncle/structure/utils"
)

// AppConfig is the file layout read by viper:
//
//	database:
//	  connection: {type: sqlite, dbname: structure}
//	  migrate: {enable_migrate_on_startup: true}
//	translation: {default_locale: en, redis_addr: ""}
//	log: {level: info, format: text, file: {enabled: false}}
type AppConfig struct {
	Database    database.Config    `mapstructure:"database"`
	Translation translation.Config `mapstructure:"translation"`
	Log         LogConfig          `mapstructure:"log"`
}

type LogConfig struct {
	Level  string              `mapstructure:"level"`
	Format string              `mapstructure:"format"`
	File   utils.FileLogConfig `mapstructure:"file"`
}

func initConfig(path string) error {
	envFiles := []string{".env", ".env.local"}
	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}

	if path != "" {
		viper.SetConfigFile(path)
		configDir := filepath.Dir(path)
		for _, envFile := range envFiles {
			_ = godotenv.Load(filepath.Join(configDir, envFile))
		}
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("$HOME/.structure")
	}

	setDefaults()
	viper.SetEnvPrefix("STRUCTURE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// setDefaults registers every key so that STRUCTURE_* variables reach
// Unmarshal even without a config file.
func setDefaults() {
	conn := database.DefaultConnectionConfig()
	defaults := map[string]interface{}{
		"database.connection.type":                   "sqlite",
		"database.connection.host":                   "localhost",
		"database.connection.port":                   0,
		"database.connection.username":               "",
		"database.connection.password":               "",
		"database.connection.dbname":                 "structure",
		"database.connection.sslmode":                "disable",
		"database.connection.max_idle_conns":         conn.MaxIdleConns,
		"database.connection.max_open_conns":         conn.MaxOpenConns,
		"database.connection.conn_max_lifetime":      conn.ConnMaxLifetime,
		"database.connection.conn_max_idle_time":     conn.ConnMaxIdleTime,
		"database.connection.connect_timeout":        conn.ConnectTimeout,
		"database.connection.read_timeout":           conn.ReadTimeout,
		"database.connection.write_timeout":          conn.WriteTimeout,
		"database.connection.enable_reconnect":       false,
		"database.connection.reconnect_interval":     conn.ReconnectInterval,
		"database.connection.max_reconnect_tries":    conn.MaxReconnectTries,
		"database.connection.health_check_interval":  0,
		"database.connection.enable_query_log":       false,
		"database.connection.slow_query_time":        conn.SlowQueryTime,
		"database.migrate.enable_migrate_on_startup": false,
		"translation.default_locale":                 "en",
		"translation.cache_ttl":                      translation.DefaultCacheTTL,
		"translation.redis_addr":                     "",
		"log.file.enabled":                           false,
		"log.file.dir":                               "logs",
		"log.file.max_size_mb":                       100,
		"log.file.max_backups":                       7,
		"log.file.max_age_days":                      30,
		"log.file.compress":                          false,
	}
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
}

// LoadConfig decodes the merged configuration.
func LoadConfig() (*AppConfig, error) {
	var cfg AppConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}
