// Package configuration implements the reading of the program's configuration
// from Unix-type (KEY=VALUE) configuration files.
package configuration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidValue occurs when a configuration key holds a value that cannot
// be converted to the expected type.
var ErrInvalidValue = errors.New("invalid configuration value")

type genericConfigProvider interface {
	Read(filenames ...string) (envMap map[string]string, err error)
}

// Handler is the principal implementation of the configuration functions.
type Handler struct {
	GenericHandler genericConfigProvider
}

// NewHandler returns a pointer to a new configuration [Handler].
func NewHandler(genericHandler genericConfigProvider) *Handler {
	return &Handler{
		GenericHandler: genericHandler,
	}
}

// ReadGeneric reads the given configuration files into a map.
func (c *Handler) ReadGeneric(filenames ...string) (map[string]string, error) {
	return c.GenericHandler.Read(filenames...)
}

// MapKeyToString returns the value for key or an empty string if it does not
// exist.
func (c *Handler) MapKeyToString(envMap map[string]string, key string) string {
	if value, exists := envMap[key]; exists {
		return strings.TrimSpace(value)
	}

	return ""
}

// MapKeyToInt returns the integer value for key. The boolean is false if the
// key does not exist, an error is returned if the value is not an integer.
func (c *Handler) MapKeyToInt(envMap map[string]string, key string) (int, bool, error) {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return 0, false, nil
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, true, fmt.Errorf("(config-int) %w: %s=%q", ErrInvalidValue, key, value)
	}

	return intValue, true, nil
}

// MapKeyToDuration returns the [time.Duration] value for key (e.g. "5ms").
// The boolean is false if the key does not exist, an error is returned if the
// value is not a duration.
func (c *Handler) MapKeyToDuration(envMap map[string]string, key string) (time.Duration, bool, error) {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return 0, false, nil
	}

	durValue, err := time.ParseDuration(value)
	if err != nil {
		return 0, true, fmt.Errorf("(config-duration) %w: %s=%q", ErrInvalidValue, key, value)
	}

	return durValue, true, nil
}

// MapKeyToBool returns the boolean value for key. The second boolean is false
// if the key does not exist, an error is returned if the value is not a
// boolean.
func (c *Handler) MapKeyToBool(envMap map[string]string, key string) (bool, bool, error) {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return false, false, nil
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return false, true, fmt.Errorf("(config-bool) %w: %s=%q", ErrInvalidValue, key, value)
	}

	return boolValue, true, nil
}
