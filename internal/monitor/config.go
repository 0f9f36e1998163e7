package monitor

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultWarnThreshold        = 3
	DefaultKickThreshold        = 5
	DefaultBanThreshold         = 7
	DefaultMaxInterval          = 2000 * time.Millisecond
	DefaultMaxDuplicatesWarning = 7
	DefaultMaxDuplicatesKick    = 10
	DefaultMaxDuplicatesBan     = 10
	DefaultBanDeleteDays        = 1

	DefaultWarnMessage      = "{@user}, Please stop spamming."
	DefaultKickMessage      = "**{user_tag}** has been kicked for spamming."
	DefaultBanMessage       = "**{user_tag}** has been banned for spamming."
	DefaultKickErrorMessage = "Could not kick **{user_tag}** because of improper permissions."
	DefaultBanErrorMessage  = "Could not ban **{user_tag}** because of improper permissions."
)

var (
	ErrInvalidConfig  = errors.New("invalid monitor config")
	ErrThresholdOrder = errors.New("frequency thresholds are not ordered warn < kick < ban")
)

// Options is a partial configuration. A nil field means "absent" and takes the default;
// explicit zero values, false and empty strings are kept as given.
type Options struct {
	WarnThreshold        *int `yaml:"warn_threshold"`
	KickThreshold        *int `yaml:"kick_threshold"`
	BanThreshold         *int `yaml:"ban_threshold"`
	MaxInterval          *int `yaml:"max_interval"` // milliseconds
	MaxDuplicatesWarning *int `yaml:"max_duplicates_warning"`
	MaxDuplicatesKick    *int `yaml:"max_duplicates_kick"`
	MaxDuplicatesBan     *int `yaml:"max_duplicates_ban"`

	WarnMessage      *Template `yaml:"warn_message"`
	KickMessage      *Template `yaml:"kick_message"`
	BanMessage       *Template `yaml:"ban_message"`
	KickErrorMessage *Template `yaml:"kick_error_message"`
	BanErrorMessage  *Template `yaml:"ban_error_message"`
	ErrorMessages    *bool     `yaml:"error_messages"`

	IgnoredPermissions []string          `yaml:"ignored_permissions"`
	IgnoredRoles       *Matcher[[]Role]  `yaml:"ignored_roles"`
	IgnoredUsers       *Matcher[*Member] `yaml:"ignored_users"`
	IgnoredGuilds      *Matcher[*Guild]  `yaml:"ignored_guilds"`
	IgnoredChannels    *Matcher[Channel] `yaml:"ignored_channels"`

	IgnoreBots  *bool `yaml:"ignore_bots"`
	WarnEnabled *bool `yaml:"warn_enabled"`
	KickEnabled *bool `yaml:"kick_enabled"`
	BanEnabled  *bool `yaml:"ban_enabled"`
	Verbose     *bool `yaml:"verbose"`
	Debug       *bool `yaml:"debug"`

	DeleteMessagesAfterBanForPastDays *int `yaml:"delete_messages_after_ban_for_past_days"`
	LedgerLimit                       *int `yaml:"ledger_limit"`
}

// Config is the resolved, immutable monitor configuration.
type Config struct {
	WarnThreshold        int
	KickThreshold        int
	BanThreshold         int
	MaxInterval          time.Duration
	MaxDuplicatesWarning int
	MaxDuplicatesKick    int
	MaxDuplicatesBan     int

	WarnMessage      Template
	KickMessage      Template
	BanMessage       Template
	KickErrorMessage Template
	BanErrorMessage  Template
	ErrorMessages    bool

	IgnoredPermissions []string
	IgnoredRoles       Matcher[[]Role]
	IgnoredUsers       Matcher[*Member]
	IgnoredGuilds      Matcher[*Guild]
	IgnoredChannels    Matcher[Channel]

	IgnoreBots  bool
	WarnEnabled bool
	KickEnabled bool
	BanEnabled  bool
	Verbose     bool
	Debug       bool

	DeleteMessagesAfterBanForPastDays int
	// LedgerLimit caps each record log; zero keeps every record until Reset.
	LedgerLimit int
}

func Ptr[T any](v T) *T {
	return &v
}

func DefaultConfig() Config {
	return NewConfig(Options{})
}

// NewConfig merges opts over the defaults. It does not validate ranges, see Validate.
func NewConfig(opts Options) Config {
	cfg := Config{
		WarnThreshold:        orDefault(opts.WarnThreshold, DefaultWarnThreshold),
		KickThreshold:        orDefault(opts.KickThreshold, DefaultKickThreshold),
		BanThreshold:         orDefault(opts.BanThreshold, DefaultBanThreshold),
		MaxInterval:          DefaultMaxInterval,
		MaxDuplicatesWarning: orDefault(opts.MaxDuplicatesWarning, DefaultMaxDuplicatesWarning),
		MaxDuplicatesKick:    orDefault(opts.MaxDuplicatesKick, DefaultMaxDuplicatesKick),
		MaxDuplicatesBan:     orDefault(opts.MaxDuplicatesBan, DefaultMaxDuplicatesBan),

		WarnMessage:      orDefault(opts.WarnMessage, Text(DefaultWarnMessage)),
		KickMessage:      orDefault(opts.KickMessage, Text(DefaultKickMessage)),
		BanMessage:       orDefault(opts.BanMessage, Text(DefaultBanMessage)),
		KickErrorMessage: orDefault(opts.KickErrorMessage, Text(DefaultKickErrorMessage)),
		BanErrorMessage:  orDefault(opts.BanErrorMessage, Text(DefaultBanErrorMessage)),
		ErrorMessages:    orDefault(opts.ErrorMessages, true),

		IgnoredPermissions: []string{},
		IgnoredRoles:       orDefault(opts.IgnoredRoles, Matcher[[]Role]{}),
		IgnoredUsers:       orDefault(opts.IgnoredUsers, Matcher[*Member]{}),
		IgnoredGuilds:      orDefault(opts.IgnoredGuilds, Matcher[*Guild]{}),
		IgnoredChannels:    orDefault(opts.IgnoredChannels, Matcher[Channel]{}),

		IgnoreBots:  orDefault(opts.IgnoreBots, true),
		WarnEnabled: orDefault(opts.WarnEnabled, true),
		KickEnabled: orDefault(opts.KickEnabled, true),
		BanEnabled:  orDefault(opts.BanEnabled, true),
		Verbose:     orDefault(opts.Verbose, false),
		Debug:       orDefault(opts.Debug, false),

		DeleteMessagesAfterBanForPastDays: orDefault(opts.DeleteMessagesAfterBanForPastDays, DefaultBanDeleteDays),
		LedgerLimit:                       orDefault(opts.LedgerLimit, 0),
	}
	if opts.MaxInterval != nil {
		cfg.MaxInterval = time.Duration(*opts.MaxInterval) * time.Millisecond
	}
	if opts.IgnoredPermissions != nil {
		cfg.IgnoredPermissions = append(cfg.IgnoredPermissions, opts.IgnoredPermissions...)
	}
	return cfg
}

// Validate reports ranges the monitor cannot work with. Out-of-order frequency thresholds
// are reported alone as ErrThresholdOrder so callers may log and carry on. A zero threshold
// never fires and is left out of the order check.
func (c Config) Validate() error {
	var errs []error
	thresholds := []struct {
		name  string
		value int
	}{
		{"warn_threshold", c.WarnThreshold},
		{"kick_threshold", c.KickThreshold},
		{"ban_threshold", c.BanThreshold},
		{"max_duplicates_warning", c.MaxDuplicatesWarning},
		{"max_duplicates_kick", c.MaxDuplicatesKick},
		{"max_duplicates_ban", c.MaxDuplicatesBan},
	}
	// zero turns a trigger off
	for _, th := range thresholds {
		if th.value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %d", th.name, th.value))
		}
	}
	if c.MaxInterval <= 0 {
		errs = append(errs, fmt.Errorf("max_interval must be positive, got %s", c.MaxInterval))
	}
	if c.DeleteMessagesAfterBanForPastDays < 1 || c.DeleteMessagesAfterBanForPastDays > 7 {
		errs = append(errs, fmt.Errorf("delete_messages_after_ban_for_past_days must be within 1..7, got %d", c.DeleteMessagesAfterBanForPastDays))
	}
	if c.LedgerLimit < 0 {
		errs = append(errs, fmt.Errorf("ledger_limit must not be negative, got %d", c.LedgerLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	var active []int
	for _, th := range []int{c.WarnThreshold, c.KickThreshold, c.BanThreshold} {
		if th > 0 {
			active = append(active, th)
		}
	}
	for i := 1; i < len(active); i++ {
		if active[i-1] >= active[i] {
			return ErrThresholdOrder
		}
	}
	return nil
}

func orDefault[T any](v *T, def T) T {
	if v == nil {
		return def
	}
	return *v
}
