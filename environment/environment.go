package environment

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/firebrand/go-firebrand-common/logger"
)

const (
	LogLevelKey    = "LOGLEVEL"
	commaSeparator = ","
)

// GetLogLevel returns the configured log level, INFO when unset. It is called
// before any logger is available so it must not log.
func GetLogLevel() string {
	return strings.ToUpper(GetWithDefault(LogLevelKey, logger.InfoLevel))
}

// GetWithDefault returns the value of the environment variable or fallback
// when it is not defined.
func GetWithDefault(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return value
}

// GetOrFatal returns the key's value or panics through the logger.
func GetOrFatal(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		logger.Sugar.Panicf("required environment variable is not defined: %s", key)
	}
	return value
}

// GetRequired gets the value for the key, or an error if it is not set.
func GetRequired(key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("required environment variable '%s' is not defined", key)
	}
	return value, nil
}

// GetIntWithDefault returns the integer value of key, or fallback when the
// variable is missing or not an integer.
func GetIntWithDefault(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.Atoi(val)
	if err != nil {
		logger.Sugar.Infof("`%s' can not be converted to an integer. defaulting to %v. err=%v", key, fallback, err)
		return fallback
	}
	return value
}

// GetTruthy returns true if key is set to a value understood as true by
// strconv.ParseBool.
func GetTruthy(key string) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return b
}

// GetTruthyOrFatal is GetTruthy but panics when the variable is missing or
// not a boolean.
func GetTruthyOrFatal(key string) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		logger.Sugar.Panicf("environment variable %s not found", key)
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		logger.Sugar.Panicf("environment variable %s not valid truthy value: %v", key, err)
	}
	return b
}

// GetList returns the comma separated values of key, nil when unset.
func GetList(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	return strings.Split(value, commaSeparator)
}
