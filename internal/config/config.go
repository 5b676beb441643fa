package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 2333
	defaultEnv        = "development"

	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "mailkeeper"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379

	defaultBackupInterval = 24
	defaultBackupKeep     = 14
)

func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	raw := rawAppConfig{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	applyRawAppConfig(&cfg, raw)
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return nil, fmt.Errorf("invalid database.port %d in %q, expected 1-65535", cfg.Database.Port, path)
	}
	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return nil, fmt.Errorf("invalid redis.port %d in %q, expected 1-65535", cfg.Redis.Port, path)
	}
	for i, f := range cfg.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("fields[%d] in %q has no name", i, path)
		}
		if f.Type != FieldTypeText && f.Type != FieldTypeCheckbox {
			return nil, fmt.Errorf("fields[%d] (%s) in %q has invalid type %q, expected text or checkbox", i, f.Name, path, f.Type)
		}
	}

	return &cfg, nil
}

// Field types accepted in the fields list.
const (
	FieldTypeText     = "text"
	FieldTypeCheckbox = "checkbox"
)

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
		},
		Site: SiteConfig{
			Name:    "Mailkeeper",
			BaseURL: "http://localhost:2333",
		},
		Mail: MailOptions{
			PrependSitename: true,
			Subjects: MailSubjects{
				Confirmation: "Please confirm your subscription",
				Confirmed:    "Your subscription is confirmed",
				Unsubscribed: "You have been unsubscribed",
			},
		},
		Notify: NotifyOptions{
			OnUnconfirmed:  true,
			OnUnsubscribed: true,
		},
		Messages: Messages{
			Sent:              "Thanks! Check your inbox to confirm your subscription.",
			Resent:            "We sent you a new confirmation email. Check your inbox.",
			AlreadySubscribed: "This email address is already subscribed.",
			Confirmed:         "Subscription confirmed. Thanks for joining!",
			CannotConfirm:     "We cannot confirm this subscription. Please try subscribing again.",
			Unsubscribed:      "You have been unsubscribed. We will miss you!",
			CannotUnsubscribe: "We cannot unsubscribe this email address.",
			MissingEmail:      "An email address is required.",
			TechnicalError:    "Sorry, something went wrong on our side. Please try again later.",
		},
		Backup: BackupOptions{
			IntervalHours: defaultBackupInterval,
			Dir:           "backups",
			Keep:          defaultBackupKeep,
		},
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw.Redis, raw.RedisURL)

	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(raw.JWTSecretLegacy); v != "" {
		cfg.JWTSecret = v
	}

	if v := strings.TrimSpace(raw.Admin.Password); v != "" {
		cfg.Admin.Password = v
	}
	if v := strings.TrimSpace(raw.Admin.PasswordHash); v != "" {
		cfg.Admin.Password = v
	}
	if v := strings.TrimSpace(raw.Admin.Secret); v != "" {
		cfg.Admin.Password = v
	}
	if v := strings.TrimSpace(raw.AdminPassword); v != "" {
		cfg.Admin.Password = v
	}

	if v := strings.TrimSpace(raw.Site.Name); v != "" {
		cfg.Site.Name = v
	}
	if v := strings.TrimSpace(raw.SiteName); v != "" {
		cfg.Site.Name = v
	}
	if v := strings.TrimSpace(raw.Site.BaseURL); v != "" {
		cfg.Site.BaseURL = v
	}
	if v := strings.TrimSpace(raw.Site.URL); v != "" {
		cfg.Site.BaseURL = v
	}
	if v := strings.TrimSpace(raw.BaseURL); v != "" {
		cfg.Site.BaseURL = v
	}
	cfg.Site.BaseURL = strings.TrimRight(cfg.Site.BaseURL, "/")

	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSAllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSAllowedOrigins)
	}

	cfg.Mail = applyRawMailOptions(cfg.Mail, raw.MailOptions)
	cfg.Mail = applyRawMailOptions(cfg.Mail, raw.Mail)
	cfg.Notify = applyRawNotifyOptions(cfg.Notify, raw.Notify)
	cfg.Messages = applyRawMessages(cfg.Messages, raw.Messages)

	if raw.Fields != nil {
		cfg.Fields = normalizeFields(raw.Fields)
	}

	cfg.Backup = applyRawBackupOptions(cfg.Backup, raw.Backup)

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.Env = normalizeEnv(cfg.Env)
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.Database.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Database.URL); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.DatabaseURL); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Database.Host); v != "" {
		cfg.Host = v
	}
	if raw.Database.Port != 0 {
		cfg.Port = raw.Database.Port
	}
	if v := strings.TrimSpace(raw.Database.User); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Database.Username); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Database.Password); v != "" {
		cfg.Password = v
	}
	if v := strings.TrimSpace(raw.Database.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Database.DBName); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Database.Charset); v != "" {
		cfg.Charset = v
	}
	if raw.Database.ParseTime != nil {
		cfg.ParseTime = *raw.Database.ParseTime
	}
	if v := strings.TrimSpace(raw.Database.Loc); v != "" {
		cfg.Loc = v
	}
	if raw.Database.Params != nil {
		cfg.Params = copyStringMap(raw.Database.Params)
	}

	return normalizeDatabaseConfig(cfg)
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawRedisConfig, topLevelURL string) RedisRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(topLevelURL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.Host); v != "" {
		cfg.Host = v
	}
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(raw.Password); v != "" {
		cfg.Password = v
	}
	if raw.DB != nil {
		cfg.DB = *raw.DB
	}
	if raw.TLS != nil {
		cfg.TLS = *raw.TLS
	}

	return normalizeRedisConfig(cfg)
}

func applyRawMailOptions(current MailOptions, raw rawMailOptions) MailOptions {
	cfg := current

	if raw.Enable != nil {
		cfg.Enable = *raw.Enable
	}
	if v := strings.TrimSpace(raw.From); v != "" {
		cfg.From = v
	}
	if v := strings.TrimSpace(raw.ReplyTo); v != "" {
		cfg.ReplyTo = v
	}
	if v := strings.TrimSpace(raw.SMTP.Host); v != "" {
		cfg.SMTP.Host = v
	}
	if raw.SMTP.Port != 0 {
		cfg.SMTP.Port = raw.SMTP.Port
	}
	if v := strings.TrimSpace(raw.SMTP.User); v != "" {
		cfg.SMTP.User = v
	}
	if raw.SMTP.Pass != "" {
		cfg.SMTP.Pass = raw.SMTP.Pass
	}
	if v := strings.TrimSpace(raw.Resend.APIKey); v != "" {
		cfg.Resend.APIKey = v
	}
	if raw.PrependSitename != nil {
		cfg.PrependSitename = *raw.PrependSitename
	}
	if v := strings.TrimSpace(raw.Subjects.Confirmation); v != "" {
		cfg.Subjects.Confirmation = v
	}
	if v := strings.TrimSpace(raw.Subjects.Confirmed); v != "" {
		cfg.Subjects.Confirmed = v
	}
	if v := strings.TrimSpace(raw.Subjects.Unsubscribed); v != "" {
		cfg.Subjects.Unsubscribed = v
	}

	return cfg
}

func applyRawNotifyOptions(current NotifyOptions, raw rawNotifyOptions) NotifyOptions {
	cfg := current

	if v := strings.TrimSpace(raw.To); v != "" {
		cfg.To = v
	}
	if v := strings.TrimSpace(raw.Email); v != "" {
		cfg.To = v
	}
	if raw.OnUnconfirmed != nil {
		cfg.OnUnconfirmed = *raw.OnUnconfirmed
	}
	if raw.OnUnsubscribed != nil {
		cfg.OnUnsubscribed = *raw.OnUnsubscribed
	}

	return cfg
}

func applyRawMessages(current Messages, raw rawMessages) Messages {
	cfg := current

	if v := strings.TrimSpace(raw.Sent); v != "" {
		cfg.Sent = v
	}
	if v := strings.TrimSpace(raw.Resent); v != "" {
		cfg.Resent = v
	}
	if v := strings.TrimSpace(raw.AlreadySubscribed); v != "" {
		cfg.AlreadySubscribed = v
	}
	if v := strings.TrimSpace(raw.Confirmed); v != "" {
		cfg.Confirmed = v
	}
	if v := strings.TrimSpace(raw.CannotConfirm); v != "" {
		cfg.CannotConfirm = v
	}
	if v := strings.TrimSpace(raw.Unsubscribed); v != "" {
		cfg.Unsubscribed = v
	}
	if v := strings.TrimSpace(raw.CannotUnsubscribe); v != "" {
		cfg.CannotUnsubscribe = v
	}
	if v := strings.TrimSpace(raw.MissingEmail); v != "" {
		cfg.MissingEmail = v
	}
	if v := strings.TrimSpace(raw.TechnicalError); v != "" {
		cfg.TechnicalError = v
	}

	return cfg
}

func applyRawBackupOptions(current BackupOptions, raw rawBackupOptions) BackupOptions {
	cfg := current

	if raw.Enable != nil {
		cfg.Enable = *raw.Enable
	}
	if raw.IntervalHours > 0 {
		cfg.IntervalHours = raw.IntervalHours
	}
	if v := strings.TrimSpace(raw.Dir); v != "" {
		cfg.Dir = v
	}
	if raw.Keep != nil && *raw.Keep >= 0 {
		cfg.Keep = *raw.Keep
	}

	if raw.S3.Enable != nil {
		cfg.S3.Enable = *raw.S3.Enable
	}
	if v := strings.TrimSpace(raw.S3.Endpoint); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := strings.TrimSpace(raw.S3.AccessKeyID); v != "" {
		cfg.S3.AccessKeyID = v
	}
	if v := strings.TrimSpace(raw.S3.SecretAccessKey); v != "" {
		cfg.S3.SecretAccessKey = v
	}
	if v := strings.TrimSpace(raw.S3.Bucket); v != "" {
		cfg.S3.Bucket = v
	}
	if v := strings.TrimSpace(raw.S3.Region); v != "" {
		cfg.S3.Region = v
	}
	if v := strings.TrimSpace(raw.S3.Prefix); v != "" {
		cfg.S3.Prefix = strings.Trim(v, "/")
	}
	if raw.S3.PathStyleAccess != nil {
		cfg.S3.PathStyleAccess = *raw.S3.PathStyleAccess
	}

	return cfg
}

func normalizeFields(fields []FieldDef) []FieldDef {
	out := make([]FieldDef, 0, len(fields))
	for _, f := range fields {
		f.Name = strings.TrimSpace(f.Name)
		f.Label = strings.TrimSpace(f.Label)
		f.Type = strings.ToLower(strings.TrimSpace(f.Type))
		if f.Type == "" {
			f.Type = FieldTypeText
		}
		if f.Label == "" {
			f.Label = f.Name
		}
		out = append(out, f)
	}
	return out
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	trimmed := strings.ToLower(strings.TrimSpace(env))
	if trimmed == "" {
		return defaultEnv
	}
	return trimmed
}

func copyStringMap(input map[string]string) map[string]string {
	if input == nil {
		return nil
	}
	out := make(map[string]string, len(input))
	for key, value := range input {
		k := strings.TrimSpace(key)
		v := strings.TrimSpace(value)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

// FieldByName returns the configured field definition for name, if any.
func (c *AppConfig) FieldByName(name string) (FieldDef, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}
