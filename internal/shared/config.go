package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// ValueSource is the read side of the configuration store.
type ValueSource interface {
	GetValue(section, key string) (string, bool)
}

// Config represents the application configuration derived from the store.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	User        UserConfig        `toml:"user"`
	Hotkeys     HotkeysConfig     `toml:"hotkeys"`
	Poll        PollConfig        `toml:"poll"`
	Indicator   IndicatorConfig   `toml:"indicator"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains Spotify API credentials and the persisted OAuth token.
type CredentialsConfig struct {
	Username     string `toml:"username"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
	TokenType    string `toml:"token_type"`
	Expiry       string `toml:"expiry"`
}

// UserConfig contains per-user playlist and seek preferences.
type UserConfig struct {
	DiscardsPlaylistID string `toml:"discards_playlist_id"`
	TargetPlaylistID   string `toml:"playlist_id_1"`
	BackSeekMS         int    `toml:"back_seek_ms"`
	ForwardSeekMS      int    `toml:"forward_seek_ms"`
}

// HotkeysConfig contains chord settings.
type HotkeysConfig struct {
	Prefix         string        `toml:"prefix"`
	FollowUpWindow time.Duration `toml:"follow_up_window"`
}

// PollConfig contains keepalive and track watcher timings.
type PollConfig struct {
	KeepaliveInterval time.Duration `toml:"keepalive_interval"`
	TrackInterval     time.Duration `toml:"track_interval"`
	IdleThreshold     int           `toml:"idle_threshold"`
	WiggleMS          int           `toml:"wiggle_ms"`
	WigglePause       time.Duration `toml:"wiggle_pause"`
}

// IndicatorConfig selects the status indicator sinks.
type IndicatorConfig struct {
	Sinks string `toml:"sinks"`
}

// SinkList returns the configured sink names.
func (c IndicatorConfig) SinkList() []string {
	var sinks []string
	for _, s := range strings.Split(c.Sinks, ",") {
		if s = strings.TrimSpace(strings.ToLower(s)); s != "" {
			sinks = append(sinks, s)
		}
	}
	return sinks
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains local HTTP server settings.
type ServerConfig struct {
	Host              string  `toml:"host"`
	Port              int     `toml:"port"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Setting names a required store value and how to ask for it.
type Setting struct {
	Section string
	Key     string
	Title   string
	Secret  bool
}

// RequiredSettings lists the values the daemon cannot start without.
var RequiredSettings = []Setting{
	{Section: "credentials", Key: "username", Title: "Spotify username"},
	{Section: "credentials", Key: "client_id", Title: "Client ID"},
	{Section: "credentials", Key: "client_secret", Title: "Client secret", Secret: true},
	{Section: "credentials", Key: "redirect_uri", Title: "Redirect URI"},
	{Section: "user", Key: "discards_playlist_id", Title: "Discards playlist ID"},
	{Section: "user", Key: "back_seek_ms", Title: "Back seek (ms)"},
	{Section: "user", Key: "forward_seek_ms", Title: "Forward seek (ms)"},
}

// MissingSettings returns the required settings with no value in src.
func MissingSettings(src ValueSource) []Setting {
	var missing []Setting
	for _, s := range RequiredSettings {
		if v, ok := src.GetValue(s.Section, s.Key); !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, s)
		}
	}
	return missing
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// LoadConfig overlays the values found in src onto the defaults.
//
// Unparseable values are reported and the default is kept.
func LoadConfig(src ValueSource) (*Config, error) {
	c := DefaultConfig()
	p := parser{src: src}

	p.str("credentials", "username", &c.Credentials.Username)
	p.str("credentials", "client_id", &c.Credentials.ClientID)
	p.str("credentials", "client_secret", &c.Credentials.ClientSecret)
	p.str("credentials", "redirect_uri", &c.Credentials.RedirectURI)
	p.str("credentials", "access_token", &c.Credentials.AccessToken)
	p.str("credentials", "refresh_token", &c.Credentials.RefreshToken)
	p.str("credentials", "token_type", &c.Credentials.TokenType)
	p.str("credentials", "expiry", &c.Credentials.Expiry)

	p.str("user", "discards_playlist_id", &c.User.DiscardsPlaylistID)
	p.str("user", "playlist_id_1", &c.User.TargetPlaylistID)
	p.integer("user", "back_seek_ms", &c.User.BackSeekMS)
	p.integer("user", "forward_seek_ms", &c.User.ForwardSeekMS)

	p.str("hotkeys", "prefix", &c.Hotkeys.Prefix)
	p.duration("hotkeys", "follow_up_window", &c.Hotkeys.FollowUpWindow)

	p.duration("poll", "keepalive_interval", &c.Poll.KeepaliveInterval)
	p.duration("poll", "track_interval", &c.Poll.TrackInterval)
	p.integer("poll", "idle_threshold", &c.Poll.IdleThreshold)
	p.integer("poll", "wiggle_ms", &c.Poll.WiggleMS)
	p.duration("poll", "wiggle_pause", &c.Poll.WigglePause)

	p.str("indicator", "sinks", &c.Indicator.Sinks)

	p.str("database", "path", &c.Database.Path)
	p.integer("database", "max_open_conns", &c.Database.MaxOpenConns)
	p.integer("database", "max_idle_conns", &c.Database.MaxIdleConns)

	p.str("server", "host", &c.Server.Host)
	p.integer("server", "port", &c.Server.Port)
	p.float("server", "requests_per_second", &c.Server.RequestsPerSecond)

	c.ApplyEnv()
	c.normalize()

	if len(p.errs) > 0 {
		return c, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(p.errs, "; "))
	}
	return c, nil
}

// ApplyEnv lets SPOTIFY_ID and SPOTIFY_SECRET override the stored client credentials.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPOTIFY_ID"); v != "" {
		c.Credentials.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_SECRET"); v != "" {
		c.Credentials.ClientSecret = v
	}
}

// normalize enforces sign and range constraints. The back step always seeks backwards.
func (c *Config) normalize() {
	if c.User.BackSeekMS > 0 {
		c.User.BackSeekMS = -c.User.BackSeekMS
	}
	if c.User.ForwardSeekMS < 0 {
		c.User.ForwardSeekMS = -c.User.ForwardSeekMS
	}
	if c.Poll.IdleThreshold < 1 {
		c.Poll.IdleThreshold = 1
	}
	if c.Server.RequestsPerSecond <= 0 {
		c.Server.RequestsPerSecond = 5
	}
}

// Map returns the credential fields in the form expected by the remote service constructor.
func (c CredentialsConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"redirect_uri":  c.RedirectURI,
		"access_token":  c.AccessToken,
		"refresh_token": c.RefreshToken,
		"token_type":    c.TokenType,
		"expiry":        c.Expiry,
	}
}

// Token returns the persisted OAuth token, or nil when none is stored.
func (c CredentialsConfig) Token() *oauth2.Token {
	if c.AccessToken == "" && c.RefreshToken == "" {
		return nil
	}
	tok := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
	}
	if expiry, err := time.Parse(time.RFC3339, c.Expiry); err == nil {
		tok.Expiry = expiry
	}
	return tok
}

// TokenValues renders a token as credential store values.
func TokenValues(tok *oauth2.Token) map[string]string {
	values := map[string]string{
		"access_token": tok.AccessToken,
		"token_type":   tok.TokenType,
		"expiry":       tok.Expiry.UTC().Format(time.RFC3339),
	}
	if tok.RefreshToken != "" {
		values["refresh_token"] = tok.RefreshToken
	}
	return values
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/spotkey/config.toml or its platform equivalent.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "spotkey", "config.toml")
}

type parser struct {
	src  ValueSource
	errs []string
}

func (p *parser) lookup(section, key string) (string, bool) {
	v, ok := p.src.GetValue(section, key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (p *parser) str(section, key string, dst *string) {
	if v, ok := p.lookup(section, key); ok {
		*dst = v
	}
}

func (p *parser) integer(section, key string, dst *int) {
	v, ok := p.lookup(section, key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s.%s: %q is not an integer", section, key, v))
		return
	}
	*dst = n
}

func (p *parser) float(section, key string, dst *float64) {
	v, ok := p.lookup(section, key)
	if !ok {
		return
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s.%s: %q is not a number", section, key, v))
		return
	}
	*dst = n
}

// duration accepts Go duration strings or a bare number of milliseconds.
func (p *parser) duration(section, key string, dst *time.Duration) {
	v, ok := p.lookup(section, key)
	if !ok {
		return
	}
	if ms, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(ms) * time.Millisecond
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Sprintf("%s.%s: %q is not a duration", section, key, v))
		return
	}
	*dst = d
}
