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

package translation

import "time"

const (
	DefaultTable    = "ext_translations"
	DefaultCacheTTL = 5 * time.Minute
)

// Config is passed to NewTranslator. An empty locale given to a query falls
// back to DefaultLocale, and queries for DefaultLocale return stored values
// untouched.
type Config struct {
	DefaultLocale string        `json:"default_locale" mapstructure:"default_locale"`
	CacheTTL      time.Duration `json:"cache_ttl" mapstructure:"cache_ttl"`
	RedisAddr     string        `json:"redis_addr" mapstructure:"redis_addr"`
}

func DefaultConfig() Config {
	return Config{DefaultLocale: "en", CacheTTL: DefaultCacheTTL}
}
