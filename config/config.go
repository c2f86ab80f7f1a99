package config

import (
	"os"
	"path"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	Secret    string `yaml:"secret" json:"secret"`
	JwtExpire int    `yaml:"jwt_expire" json:"jwt_expire"` // hours
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type SmtpConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
}

type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	Token       string `yaml:"token" json:"token"`
	AdminChatId int64  `yaml:"admin_chat_id" json:"admin_chat_id"`
}

type AdminConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	Email    string `yaml:"email" json:"email"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig      `yaml:"system" json:"system"`
	Web      WebConfig      `yaml:"web" json:"web"`
	Database DBConfig       `yaml:"database" json:"database"`
	Smtp     SmtpConfig     `yaml:"smtp" json:"smtp"`
	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`
	Admin    AdminConfig    `yaml:"admin" json:"admin"`
	Logger   LogConfig      `yaml:"logger" json:"logger"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "toughstore",
		Location: "Europe/Moscow",
		Workdir:  "/var/toughstore",
		Debug:    true,
	},
	Web: WebConfig{
		Host:      "0.0.0.0",
		Port:      1816,
		Secret:    "9b6de5cc-0731-4bf1-xpmt-0f768ac7ab7b",
		JwtExpire: 24,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "toughstore",
		User:     "postgres",
		Passwd:   "root",
		MaxConn:  100,
		IdleConn: 10,
	},
	Smtp: SmtpConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "noreply@example.com",
	},
	Telegram: TelegramConfig{},
	Admin: AdminConfig{
		Username: "admin",
		Password: "toughstore",
		Email:    "admin@example.com",
	},
	Logger: LogConfig{
		Mode:     "development",
		Filename: "/var/toughstore/toughstore.log",
	},
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetPublicDir() string {
	return path.Join(c.System.Workdir, "public")
}

func (c *AppConfig) GetUploadDir() string {
	return path.Join(c.GetPublicDir(), "uploads", "products")
}

func setEnvValue(name string, f func(v string)) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		f(evalue)
	}
}

func setEnvInt64Value(name string, f func(v int64)) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	p, err := cast.ToInt64E(evalue)
	if err == nil {
		f(p)
	}
}

func setEnvBoolValue(name string, f func(v bool)) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	p, err := cast.ToBoolE(evalue)
	if err == nil {
		f(p)
	}
}

// LoadConfig reads configuration from the given YAML file and applies
// TOUGHSTORE_ environment overrides. A missing or empty path yields the
// built-in defaults.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvValue("TOUGHSTORE_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("TOUGHSTORE_SYSTEM_LOCATION", func(v string) { cfg.System.Location = v })
	setEnvBoolValue("TOUGHSTORE_SYSTEM_DEBUG", func(v bool) { cfg.System.Debug = v })

	setEnvValue("TOUGHSTORE_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvInt64Value("TOUGHSTORE_WEB_PORT", func(v int64) { cfg.Web.Port = int(v) })
	setEnvValue("TOUGHSTORE_WEB_SECRET", func(v string) { cfg.Web.Secret = v })

	setEnvValue("TOUGHSTORE_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("TOUGHSTORE_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvInt64Value("TOUGHSTORE_DB_PORT", func(v int64) { cfg.Database.Port = int(v) })
	setEnvValue("TOUGHSTORE_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("TOUGHSTORE_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("TOUGHSTORE_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvBoolValue("TOUGHSTORE_DB_DEBUG", func(v bool) { cfg.Database.Debug = v })

	setEnvValue("TOUGHSTORE_SMTP_HOST", func(v string) { cfg.Smtp.Host = v })
	setEnvInt64Value("TOUGHSTORE_SMTP_PORT", func(v int64) { cfg.Smtp.Port = int(v) })
	setEnvValue("TOUGHSTORE_SMTP_USERNAME", func(v string) { cfg.Smtp.Username = v })
	setEnvValue("TOUGHSTORE_SMTP_PASSWORD", func(v string) { cfg.Smtp.Password = v })
	setEnvValue("TOUGHSTORE_SMTP_FROM", func(v string) { cfg.Smtp.From = v })

	setEnvBoolValue("TOUGHSTORE_TELEGRAM_ENABLED", func(v bool) { cfg.Telegram.Enabled = v })
	setEnvValue("TOUGHSTORE_TELEGRAM_TOKEN", func(v string) { cfg.Telegram.Token = v })
	setEnvInt64Value("TOUGHSTORE_TELEGRAM_ADMIN_CHAT_ID", func(v int64) { cfg.Telegram.AdminChatId = v })

	setEnvValue("TOUGHSTORE_ADMIN_USERNAME", func(v string) { cfg.Admin.Username = v })
	setEnvValue("TOUGHSTORE_ADMIN_PASSWORD", func(v string) { cfg.Admin.Password = v })
	setEnvValue("TOUGHSTORE_ADMIN_EMAIL", func(v string) { cfg.Admin.Email = v })

	setEnvValue("TOUGHSTORE_LOGGER_MODE", func(v string) { cfg.Logger.Mode = v })
	setEnvBoolValue("TOUGHSTORE_LOGGER_FILE_ENABLE", func(v bool) { cfg.Logger.FileEnable = v })
	setEnvValue("TOUGHSTORE_LOGGER_FILENAME", func(v string) { cfg.Logger.Filename = v })

	return cfg
}
