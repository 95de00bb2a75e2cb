package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	defaultValidatorAddr  = "tcp://localhost:4004"
	defaultRestAPIAddr    = "localhost:8008"
	defaultMetricsAddr    = ":9102"
	defaultRequestTimeout = 10 * time.Second
	defaultBatchWait      = 5 * time.Second
	defaultLogLevel       = zapcore.DebugLevel
)

func init() {
	viper.AutomaticEnv()
}

// GetValidatorAddr returns the validator component endpoint, used by the processor and the event listener
func GetValidatorAddr() string {
	addr := viper.GetString("VALIDATOR_ADDR")
	if addr == "" {
		return defaultValidatorAddr
	}
	if !strings.Contains(addr, "://") {
		addr = "tcp://" + addr
	}

	return addr
}

func GetValidatorRestAPIAddr() string {
	addr := viper.GetString("VALIDATOR_RESTAPI_ADDR")
	if addr == "" {
		return defaultRestAPIAddr
	}

	return addr
}

func GetMetricsAddr() string {
	addr := viper.GetString("METRICS_ADDR")
	if addr == "" {
		return defaultMetricsAddr
	}

	return addr
}

func GetRequestTimeout() time.Duration {
	return getDuration("REQ_TIMEOUT", defaultRequestTimeout)
}

// GetBatchWait is how long the client waits for a submitted batch to be committed
func GetBatchWait() time.Duration {
	return getDuration("BATCH_WAIT", defaultBatchWait)
}

func GetLogLevel() zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(viper.GetString("LOG_LEVEL"))); err != nil || viper.GetString("LOG_LEVEL") == "" {
		return defaultLogLevel
	}

	return level
}

// GetSignerKey returns the hex encoded private key the transactions are signed with
func GetSignerKey() string {
	return viper.GetString("SIGNER_KEY")
}

// GetProcessorThreads returns 0 when the SDK default should be used
func GetProcessorThreads() int {
	threads := viper.GetInt("PROCESSOR_THREADS")
	if threads < 0 {
		return 0
	}

	return threads
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := viper.GetString(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil || duration <= 0 {
		return defaultValue
	}

	return duration
}
