package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fangeriz/gazette"
	"github.com/fangeriz/gazette/smtp"
)

// Config is the program configuration loaded from a JSON file. The SMTP
// password may be omitted from the file and supplied via the
// GAZETTE_SMTP_PASSWORD environment variable instead.
type Config struct {
	DBPath     string                  `json:"db_path"`
	Recipients recipients              `json:"recipient_email"`
	SMTP       SMTPConfig              `json:"smtp_config"`
	Sources    map[string]SourceConfig `json:"sources"`
}

// SMTPConfig holds the mail delivery settings.
type SMTPConfig struct {
	Server   string `json:"server"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// recipients accepts either a single address or a list.
type recipients []string

func (r *recipients) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*r = recipients{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("recipient_email must be a string or a list of strings")
	}
	*r = recipients(many)
	return nil
}

// SourceConfig is the JSON shape of one monitored gazette.
type SourceConfig struct {
	Name        string            `json:"name"`
	URL         string            `json:"url"`
	URLTemplate string            `json:"api_url_template"`
	FetchMethod string            `json:"fetch_method"`
	Headers     map[string]string `json:"headers"`
	VerifySSL   *bool             `json:"verify_ssl"`
	Timeout     float64           `json:"timeout"`
	Delay       float64           `json:"delay"`
	MaxRetries  int               `json:"max_retries"`
	Parser      string            `json:"parser"`
	Rules       *RulesConfig      `json:"parser_rules"`
	Sentinels   []string          `json:"sentinels"`
}

// RulesConfig is the JSON shape of a declarative extraction rule set.
type RulesConfig struct {
	Engine    string                     `json:"engine"`
	Container string                     `json:"container"`
	Fields    map[string]FieldRuleConfig `json:"fields"`
}

// FieldRuleConfig is the JSON shape of one field extraction rule.
type FieldRuleConfig struct {
	Selector string `json:"selector"`
	Type     string `json:"type"`
	Attr     string `json:"attr"`
	Default  string `json:"default"`
}

// LoadConfig reads and validates the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, gazette.Errorf(gazette.EINVALID, "failed to parse config %q: %s", path, err)
	}

	if len(cfg.Sources) == 0 {
		return nil, gazette.Errorf(gazette.EINVALID, "config %q: at least one source required", path)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "gazette.db"
	}
	if pw := os.Getenv("GAZETTE_SMTP_PASSWORD"); pw != "" {
		cfg.SMTP.Password = pw
	}
	return &cfg, nil
}

// Source converts a SourceConfig to the domain representation, applying
// defaults: TLS verification is on unless explicitly disabled.
func (c SourceConfig) Source(countryCode string) *gazette.Source {
	verify := true
	if c.VerifySSL != nil {
		verify = *c.VerifySSL
	}

	src := &gazette.Source{
		CountryCode: countryCode,
		Name:        c.Name,
		BaseURL:     c.URL,
		URLTemplate: c.URLTemplate,
		Method:      gazette.FetchMethod(c.FetchMethod),
		Headers:     c.Headers,
		VerifySSL:   verify,
		Timeout:     time.Duration(c.Timeout * float64(time.Second)),
		Delay:       time.Duration(c.Delay * float64(time.Second)),
		MaxRetries:  c.MaxRetries,
		Parser:      c.Parser,
		Sentinels:   c.Sentinels,
	}
	if src.Name == "" {
		src.Name = countryCode
	}
	if c.Rules != nil {
		rules := &gazette.Rules{
			Engine:    c.Rules.Engine,
			Container: c.Rules.Container,
			Fields:    make(map[string]gazette.FieldRule, len(c.Rules.Fields)),
		}
		for name, f := range c.Rules.Fields {
			rules.Fields[name] = gazette.FieldRule{
				Selector: f.Selector,
				Type:     f.Type,
				Attr:     f.Attr,
				Default:  f.Default,
			}
		}
		src.Rules = rules
	}
	return src
}

// SMTPNotifierConfig converts the mail settings to the notifier package's
// config type.
func (c *Config) SMTPNotifierConfig() smtp.Config {
	return smtp.Config{
		Server:     c.SMTP.Server,
		Port:       c.SMTP.Port,
		Username:   c.SMTP.Username,
		Password:   c.SMTP.Password,
		Recipients: []string(c.Recipients),
	}
}
