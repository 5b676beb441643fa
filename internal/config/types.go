package config

// AppConfig holds the full runtime configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	DSN            string                `yaml:"dsn"` // MySQL DSN
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	JWTSecret      string                `yaml:"jwt_secret"`
	Admin          AdminConfig           `yaml:"admin"`
	Site           SiteConfig            `yaml:"site"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	Mail           MailOptions           `yaml:"mail"`
	Notify         NotifyOptions         `yaml:"notify"`
	Messages       Messages              `yaml:"messages"`
	Fields         []FieldDef            `yaml:"fields"`
	Backup         BackupOptions         `yaml:"backup"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type AdminConfig struct {
	// Password is either a bcrypt hash or a plaintext value. Plaintext is
	// hashed at startup so comparisons always go through bcrypt.
	Password string `yaml:"password"`
}

type SiteConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
}

// MailOptions configures outbound email delivery.
type MailOptions struct {
	Enable          bool          `yaml:"enable"`
	From            string        `yaml:"from"`
	ReplyTo         string        `yaml:"reply_to"`
	SMTP            SMTPOptions   `yaml:"smtp"`
	Resend          ResendOptions `yaml:"resend"`
	PrependSitename bool          `yaml:"prepend_sitename"`
	Subjects        MailSubjects  `yaml:"subjects"`
}

type SMTPOptions struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

type ResendOptions struct {
	APIKey string `yaml:"api_key"`
}

type MailSubjects struct {
	Confirmation string `yaml:"confirmation"`
	Confirmed    string `yaml:"confirmed"`
	Unsubscribed string `yaml:"unsubscribed"`
}

// NotifyOptions controls the operator notification emails that follow a
// committed subscriber change.
type NotifyOptions struct {
	To             string `yaml:"to"`
	OnUnconfirmed  bool   `yaml:"on_unconfirmed"`
	OnUnsubscribed bool   `yaml:"on_unsubscribed"`
}

// Messages are the user-facing outcome texts returned by the API.
type Messages struct {
	Sent              string `yaml:"sent"`
	Resent            string `yaml:"resent"`
	AlreadySubscribed string `yaml:"already_subscribed"`
	Confirmed         string `yaml:"confirmed"`
	CannotConfirm     string `yaml:"cannot_confirm"`
	Unsubscribed      string `yaml:"unsubscribed"`
	CannotUnsubscribe string `yaml:"cannot_unsubscribe"`
	MissingEmail      string `yaml:"missing_email"`
	TechnicalError    string `yaml:"technical_error"`
}

// FieldDef declares one extra form field collected at subscription time.
type FieldDef struct {
	Name     string `yaml:"name"`
	Label    string `yaml:"label"`
	Type     string `yaml:"type"` // "text" | "checkbox"
	Required bool   `yaml:"required"`
}

// BackupOptions configures the scheduled subscriber export.
type BackupOptions struct {
	Enable        bool      `yaml:"enable"`
	IntervalHours int       `yaml:"interval_hours"`
	Dir           string    `yaml:"dir"`
	Keep          int       `yaml:"keep"`
	S3            S3Options `yaml:"s3"`
}

type S3Options struct {
	Enable          bool   `yaml:"enable"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	PathStyleAccess bool   `yaml:"path_style_access"`
}

type rawAppConfig struct {
	Port               int               `yaml:"port"`
	Env                string            `yaml:"env"`
	NodeEnv            string            `yaml:"node_env"`
	DSN                string            `yaml:"dsn"`
	DatabaseURL        string            `yaml:"database_url"`
	RedisURL           string            `yaml:"redis_url"`
	Database           rawDatabaseConfig `yaml:"database"`
	Redis              rawRedisConfig    `yaml:"redis"`
	JWTSecret          string            `yaml:"jwt_secret"`
	JWTSecretLegacy    string            `yaml:"jwtsecret"`
	Admin              rawAdminConfig    `yaml:"admin"`
	AdminPassword      string            `yaml:"admin_password"`
	Site               rawSiteConfig     `yaml:"site"`
	SiteName           string            `yaml:"site_name"`
	BaseURL            string            `yaml:"base_url"`
	AllowedOrigins     []string          `yaml:"allowed_origins"`
	CORSAllowedOrigins []string          `yaml:"cors_allowed_origins"`
	Mail               rawMailOptions    `yaml:"mail"`
	MailOptions        rawMailOptions    `yaml:"mail_options"`
	Notify             rawNotifyOptions  `yaml:"notify"`
	Messages           rawMessages       `yaml:"messages"`
	Fields             []FieldDef        `yaml:"fields"`
	Backup             rawBackupOptions  `yaml:"backup"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawAdminConfig struct {
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
	Secret       string `yaml:"secret"` // legacy key name
}

type rawSiteConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	URL     string `yaml:"url"`
}

type rawMailOptions struct {
	Enable          *bool          `yaml:"enable"`
	From            string         `yaml:"from"`
	ReplyTo         string         `yaml:"reply_to"`
	SMTP            rawSMTPOptions `yaml:"smtp"`
	Resend          rawResend      `yaml:"resend"`
	PrependSitename *bool          `yaml:"prepend_sitename"`
	Subjects        rawSubjects    `yaml:"subjects"`
}

type rawSMTPOptions struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

type rawResend struct {
	APIKey string `yaml:"api_key"`
}

type rawSubjects struct {
	Confirmation string `yaml:"confirmation"`
	Confirmed    string `yaml:"confirmed"`
	Unsubscribed string `yaml:"unsubscribed"`
}

type rawNotifyOptions struct {
	To             string `yaml:"to"`
	Email          string `yaml:"email"` // legacy key name
	OnUnconfirmed  *bool  `yaml:"on_unconfirmed"`
	OnUnsubscribed *bool  `yaml:"on_unsubscribed"`
}

type rawMessages struct {
	Sent              string `yaml:"sent"`
	Resent            string `yaml:"resent"`
	AlreadySubscribed string `yaml:"already_subscribed"`
	Confirmed         string `yaml:"confirmed"`
	CannotConfirm     string `yaml:"cannot_confirm"`
	Unsubscribed      string `yaml:"unsubscribed"`
	CannotUnsubscribe string `yaml:"cannot_unsubscribe"`
	MissingEmail      string `yaml:"missing_email"`
	TechnicalError    string `yaml:"technical_error"`
}

type rawBackupOptions struct {
	Enable        *bool        `yaml:"enable"`
	IntervalHours int          `yaml:"interval_hours"`
	Dir           string       `yaml:"dir"`
	Keep          *int         `yaml:"keep"`
	S3            rawS3Options `yaml:"s3"`
}

type rawS3Options struct {
	Enable          *bool  `yaml:"enable"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	PathStyleAccess *bool  `yaml:"path_style_access"`
}
