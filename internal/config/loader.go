package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/example/openlibrary-kontrolle/internal/domain"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendGitHub = "github"
)

// Config captures environment driven configuration values for the kontrolle service.
type Config struct {
	HTTPPort     int    `validate:"min=1,max=65535"`
	StoreBackend string `validate:"oneof=memory sqlite github"`
	SQLitePath   string `validate:"required_if=StoreBackend sqlite"`
	DocumentPath string `validate:"required"`

	GitHubToken  string `validate:"required_if=StoreBackend github"`
	GitHubOwner  string `validate:"required_if=StoreBackend github"`
	GitHubRepo   string `validate:"required_if=StoreBackend github"`
	GitHubBranch string `validate:"required_if=StoreBackend github"`

	Roster       []string       `validate:"min=1,unique,dive,required"`
	Location     *time.Location `validate:"required"`
	StoreTimeout time.Duration  `validate:"gt=0"`
	HolidayStart time.Time      `validate:"required"`
	HolidayEnd   time.Time      `validate:"required,gtefield=HolidayStart"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json text"`
}

// envNames maps struct fields to the variables that set them.
var envNames = map[string]string{
	"HTTPPort":     "KONTROLLE_HTTP_PORT",
	"StoreBackend": "KONTROLLE_STORE_BACKEND",
	"SQLitePath":   "KONTROLLE_SQLITE_PATH",
	"DocumentPath": "KONTROLLE_DOCUMENT_PATH",
	"GitHubToken":  "KONTROLLE_GITHUB_TOKEN",
	"GitHubOwner":  "KONTROLLE_GITHUB_OWNER",
	"GitHubRepo":   "KONTROLLE_GITHUB_REPO",
	"GitHubBranch": "KONTROLLE_GITHUB_BRANCH",
	"Roster":       "KONTROLLE_ROSTER",
	"Location":     "KONTROLLE_TIMEZONE",
	"StoreTimeout": "KONTROLLE_STORE_TIMEOUT",
	"HolidayStart": "KONTROLLE_HOLIDAY_START",
	"HolidayEnd":   "KONTROLLE_HOLIDAY_END",
	"LogLevel":     "KONTROLLE_LOG_LEVEL",
	"LogFormat":    "KONTROLLE_LOG_FORMAT",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Defaults returns the configuration used when no variable is set.
func Defaults() Config {
	return Config{
		HTTPPort:     8080,
		StoreBackend: BackendSQLite,
		SQLitePath:   "kontrollen.db",
		DocumentPath: "kontrollen.json",
		GitHubBranch: "main",
		Roster:       append([]string(nil), domain.DefaultRosterNames...),
		Location:     zurich(),
		StoreTimeout: 15 * time.Second,
		HolidayStart: time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC),
		HolidayEnd:   time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC),
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

// Load parses configuration values from the process environment after reading
// the given dotenv files. Missing files are skipped and variables already set in
// the environment take precedence over file values.
func Load(envFiles ...string) (Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := Defaults()
	missing := make([]string, 0, 4)
	invalid := make([]string, 0, 4)

	if portValue := lookup("KONTROLLE_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil {
			invalid = append(invalid, "KONTROLLE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if backend := lookup("KONTROLLE_STORE_BACKEND"); backend != "" {
		cfg.StoreBackend = strings.ToLower(backend)
	}
	if path := lookup("KONTROLLE_SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}
	if path := lookup("KONTROLLE_DOCUMENT_PATH"); path != "" {
		cfg.DocumentPath = path
	}

	cfg.GitHubToken = lookup("KONTROLLE_GITHUB_TOKEN")
	cfg.GitHubOwner = lookup("KONTROLLE_GITHUB_OWNER")
	cfg.GitHubRepo = lookup("KONTROLLE_GITHUB_REPO")
	if branch := lookup("KONTROLLE_GITHUB_BRANCH"); branch != "" {
		cfg.GitHubBranch = branch
	}

	if rosterValue := lookup("KONTROLLE_ROSTER"); rosterValue != "" {
		cfg.Roster = splitList(rosterValue)
	}

	if zone := lookup("KONTROLLE_TIMEZONE"); zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			invalid = append(invalid, "KONTROLLE_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if timeoutValue := lookup("KONTROLLE_STORE_TIMEOUT"); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil {
			invalid = append(invalid, "KONTROLLE_STORE_TIMEOUT")
		} else {
			cfg.StoreTimeout = timeout
		}
	}

	for _, field := range []struct {
		key    string
		target *time.Time
	}{
		{"KONTROLLE_HOLIDAY_START", &cfg.HolidayStart},
		{"KONTROLLE_HOLIDAY_END", &cfg.HolidayEnd},
	} {
		value := lookup(field.key)
		if value == "" {
			continue
		}
		date, err := domain.ParseDate(value)
		if err != nil {
			invalid = append(invalid, field.key)
			continue
		}
		*field.target = date
	}

	if level := lookup("KONTROLLE_LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if format := lookup("KONTROLLE_LOG_FORMAT"); format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return Config{}, fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range fieldErrs {
			field, element := fieldName(fe)
			name := envNames[field]
			switch {
			case !element && (fe.Tag() == "required" || fe.Tag() == "required_if"):
				missing = appendUnique(missing, name)
			default:
				invalid = appendUnique(invalid, name)
			}
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Today returns the current calendar date in the configured zone.
func (c Config) Today(now time.Time) string {
	return domain.DateKey(now.In(c.Location))
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

// fieldName strips the element index from slice errors such as "Roster[2]"
// and reports whether one was present.
func fieldName(fe validator.FieldError) (string, bool) {
	name := fe.StructField()
	if i := strings.IndexByte(name, '['); i >= 0 {
		return name[:i], true
	}
	return name, false
}

func appendUnique(list []string, value string) []string {
	if slices.Contains(list, value) {
		return list
	}
	return append(list, value)
}

func zurich() *time.Location {
	loc, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		panic(fmt.Sprintf("config: load default zone: %v", err))
	}
	return loc
}
