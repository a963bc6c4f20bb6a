package configuration

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	// ConsumerBlocking selects consumers blocking on the work queue.
	ConsumerBlocking = "blocking"

	// ConsumerPolling selects a single consumer polling the work queue.
	ConsumerPolling = "polling"
)

// Keys read from configuration files.
const (
	KeyWorkers       = "PROCWATCH_WORKERS"
	KeyDisplayLimit  = "PROCWATCH_DISPLAY_LIMIT"
	KeyConsumerMode  = "PROCWATCH_CONSUMER_MODE"
	KeyPollInterval  = "PROCWATCH_POLL_INTERVAL"
	KeyHashAlgorithm = "PROCWATCH_HASH_ALGORITHM"
	KeyProcRoot      = "PROCWATCH_PROC_ROOT"
	KeyUI            = "PROCWATCH_UI"
)

const (
	defaultWorkers      = 3
	defaultDisplayLimit = 10
	defaultPollInterval = 5 * time.Millisecond
)

var (
	// ErrInvalidWorkers occurs when less than one worker is configured.
	ErrInvalidWorkers = errors.New("workers must be >= 1")

	// ErrInvalidDisplayLimit occurs when a negative display limit is
	// configured.
	ErrInvalidDisplayLimit = errors.New("display limit must be >= 0")

	// ErrInvalidConsumerMode occurs when an unknown consumer mode is
	// configured.
	ErrInvalidConsumerMode = errors.New("unknown consumer mode")

	// ErrInvalidPollInterval occurs when a non-positive polling interval is
	// configured.
	ErrInvalidPollInterval = errors.New("poll interval must be > 0")
)

// AppConfiguration is the principal structure holding the application
// configuration.
type AppConfiguration struct {
	// Workers is the amount of consumers fingerprinting processes.
	Workers int

	// DisplayLimit is the amount of processes printed after enumeration.
	DisplayLimit int

	// ConsumerMode is either [ConsumerBlocking] or [ConsumerPolling].
	ConsumerMode string

	// PollInterval is the sleep between empty polls in [ConsumerPolling] mode.
	PollInterval time.Duration

	// HashAlgorithm is the fingerprint hash algorithm, e.g. "sha256".
	HashAlgorithm string

	// ProcRoot is the mount point of the procfs, empty for the default.
	ProcRoot string

	// UI enables the command-line user interface.
	UI bool
}

// NewAppConfiguration returns a pointer to a new [AppConfiguration] holding
// the default values.
func NewAppConfiguration() *AppConfiguration {
	return &AppConfiguration{
		Workers:       defaultWorkers,
		DisplayLimit:  defaultDisplayLimit,
		ConsumerMode:  ConsumerBlocking,
		PollInterval:  defaultPollInterval,
		HashAlgorithm: "sha256",
	}
}

// Validate returns an error if the [AppConfiguration] holds invalid values.
// Hash algorithms are validated by their consumer.
func (a *AppConfiguration) Validate() error {
	var errs []error

	if a.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidWorkers, a.Workers))
	}

	if a.DisplayLimit < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidDisplayLimit, a.DisplayLimit))
	}

	if !slices.Contains([]string{ConsumerBlocking, ConsumerPolling}, a.ConsumerMode) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidConsumerMode, a.ConsumerMode))
	}

	if a.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidPollInterval, a.PollInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("(config-validate) %w", errors.Join(errs...))
	}

	return nil
}

// ReadApp returns an [AppConfiguration] with the defaults overridden by any
// keys set in the given configuration files. Without files, the defaults are
// returned. The result is not validated.
func (c *Handler) ReadApp(filenames ...string) (*AppConfiguration, error) {
	config := NewAppConfiguration()

	if len(filenames) == 0 {
		return config, nil
	}

	envMap, err := c.ReadGeneric(filenames...)
	if err != nil {
		return nil, fmt.Errorf("(config-app) %w", err)
	}

	var errs []error

	if v, ok, err := c.MapKeyToInt(envMap, KeyWorkers); err != nil {
		errs = append(errs, err)
	} else if ok {
		config.Workers = v
	}

	if v, ok, err := c.MapKeyToInt(envMap, KeyDisplayLimit); err != nil {
		errs = append(errs, err)
	} else if ok {
		config.DisplayLimit = v
	}

	if v, ok, err := c.MapKeyToDuration(envMap, KeyPollInterval); err != nil {
		errs = append(errs, err)
	} else if ok {
		config.PollInterval = v
	}

	if v, ok, err := c.MapKeyToBool(envMap, KeyUI); err != nil {
		errs = append(errs, err)
	} else if ok {
		config.UI = v
	}

	if v := c.MapKeyToString(envMap, KeyConsumerMode); v != "" {
		config.ConsumerMode = v
	}

	if v := c.MapKeyToString(envMap, KeyHashAlgorithm); v != "" {
		config.HashAlgorithm = v
	}

	if v := c.MapKeyToString(envMap, KeyProcRoot); v != "" {
		config.ProcRoot = v
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("(config-app) %w", errors.Join(errs...))
	}

	return config, nil
}
