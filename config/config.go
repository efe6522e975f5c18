package config

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyHarvestURL  = "harvest.url"
	KeyHTTPTimeout = "http.timeout"
	KeyLogLevel    = "log.level"
	KeyLogFormat   = "log.format"
	KeyProjects    = "projects"

	EnvPrefix = "HARVESTSYNC"
)

var ErrNoConfig = errors.New("no config file loaded")

var jiraKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]+$`)

type Config struct {
	Harvest  HarvestConfig `mapstructure:"harvest" validate:"required"`
	HTTP     HTTPConfig    `mapstructure:"http"`
	Log      LogConfig     `mapstructure:"log"`
	User     UserConfig    `mapstructure:"user" validate:"required"`
	Projects []Project     `mapstructure:"projects" validate:"required,min=1,dive"`
}

type HarvestConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=console json"`
}

// UserConfig describes the operator whose Harvest entries are synced.
// ID is the expected Harvest user id; zero accepts entries of any user.
type UserConfig struct {
	ID                 int64  `mapstructure:"id" validate:"gte=0"`
	HarvestAccountID   string `mapstructure:"harvest_account_id" validate:"required"`
	HarvestAccessToken string `mapstructure:"harvest_access_token" validate:"required"`
}

// Project maps one Harvest project to a Jira project and its credentials.
type Project struct {
	HarvestProjectID int64  `mapstructure:"harvest_project_id" validate:"required,gt=0"`
	JiraProjectKey   string `mapstructure:"jira_project_key" validate:"required"`
	JiraDomain       string `mapstructure:"jira_domain" validate:"required"`
	JiraEmail        string `mapstructure:"jira_email" validate:"required,email"`
	JiraToken        string `mapstructure:"jira_token" validate:"required"`
}

// ProjectFor returns the first project configured for the Harvest project id.
func (c *Config) ProjectFor(harvestProjectID int64) (*Project, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Projects {
		if c.Projects[i].HarvestProjectID == harvestProjectID {
			return &c.Projects[i], true
		}
	}
	return nil, false
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// BindEnv enables HARVESTSYNC_* environment overrides on the global Viper instance.
func BindEnv() {
	bindEnv(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	if strings.TrimSpace(viper.ConfigFileUsed()) == "" {
		return nil, ErrNoConfig
	}
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# harvestsync configuration
harvest:
  url: "https://api.harvestapp.com"

http:
  timeout: 30s

log:
  level: info
  format: console

user:
  # Harvest user id whose entries may be logged (0 accepts any user)
  id: 0
  harvest_account_id: ""
  harvest_access_token: ""

projects:
  - harvest_project_id: 0
    jira_project_key: "PROJ"
    jira_domain: "example.atlassian.net"
    jira_email: "me@example.com"
    jira_token: ""
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	normalize(&cfg)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateProjects(cfg.Projects); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyHarvestURL, "https://api.harvestapp.com")
	v.SetDefault(KeyHTTPTimeout, 30*time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyProjects, []map[string]any{})
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only resolves keys Viper already knows about.
	_ = v.BindEnv("user.id")
	_ = v.BindEnv("user.harvest_account_id")
	_ = v.BindEnv("user.harvest_access_token")
}

// normalize strips surrounding whitespace from the values that end up in
// request URLs, headers and the issue key pattern.
func normalize(cfg *Config) {
	cfg.User.HarvestAccountID = strings.TrimSpace(cfg.User.HarvestAccountID)
	cfg.User.HarvestAccessToken = strings.TrimSpace(cfg.User.HarvestAccessToken)
	for i := range cfg.Projects {
		project := &cfg.Projects[i]
		project.JiraProjectKey = strings.TrimSpace(project.JiraProjectKey)
		project.JiraDomain = strings.TrimSpace(project.JiraDomain)
		project.JiraEmail = strings.TrimSpace(project.JiraEmail)
		project.JiraToken = strings.TrimSpace(project.JiraToken)
	}
}

func validateProjects(projects []Project) error {
	for i, project := range projects {
		if !jiraKeyPattern.MatchString(project.JiraProjectKey) {
			return fmt.Errorf(
				"validation failed: projects[%d].jira_project_key %q must be an upper-case Jira project key",
				i,
				project.JiraProjectKey,
			)
		}
		if strings.Contains(project.JiraDomain, " ") {
			return fmt.Errorf("validation failed: projects[%d].jira_domain %q is not a host name", i, project.JiraDomain)
		}
	}
	return nil
}

// MaskSecret keeps the last four characters of a credential for display.
func MaskSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "<empty>"
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
