package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/protopass/internal/flagx"
	"github.com/dmitrijs2005/protopass/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Durations use timex.Duration so they can be written as "30s" or as
// integer nanoseconds. Absent fields leave the current value untouched.
type JsonConfig struct {
	ServerBaseURL         string          `json:"server_base_url"`
	RequestTimeout        *timex.Duration `json:"request_timeout"`
	VaultOperationTimeout *timex.Duration `json:"vault_operation_timeout"`
	SessionStore          string          `json:"session_store"`
	SessionDSN            string          `json:"session_dsn"`
	LogLevel              string          `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag nothing is loaded.
//
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerBaseURL != "" {
		cfg.ServerBaseURL = jc.ServerBaseURL
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.VaultOperationTimeout != nil {
		cfg.VaultOperationTimeout = jc.VaultOperationTimeout.Duration
	}
	if jc.SessionStore != "" {
		cfg.SessionStore = jc.SessionStore
	}
	if jc.SessionDSN != "" {
		cfg.SessionDSN = jc.SessionDSN
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
