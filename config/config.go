package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	SeedDemo bool   `yaml:"seed_demo"`
}

type WebConfig struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`
}

type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

type AppConfig struct {
	System   SysConfig `yaml:"system" json:"system"`
	Web      WebConfig `yaml:"web" json:"web"`
	Database DBConfig  `yaml:"database" json:"database"`
	Logger   LogConfig `yaml:"logger" json:"logger"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "crmd",
		Location: "Asia/Jakarta",
		Workdir:  "/var/crmd",
		SeedDemo: true,
	},
	Web: WebConfig{
		Host:  "0.0.0.0",
		Port:  1816,
		Debug: true,
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "crmd",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/crmd/crmd.log",
	},
}

func setEnvValue(name string, f func(v string)) {
	if value := os.Getenv(name); value != "" {
		f(value)
	}
}

func setEnvBoolValue(name string, f func(v bool)) {
	if value := os.Getenv(name); value != "" {
		f(value == "true" || value == "1" || value == "on")
	}
}

func setEnvIntValue(name string, f func(v int)) {
	if value := os.Getenv(name); value != "" {
		f(cast.ToInt(value))
	}
}

// LoadConfig reads the YAML configuration file and applies CRMD_* environment
// overrides on top of it. A missing file is not an error; defaults apply.
func LoadConfig(cfile string) *AppConfig {
	cfg := *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				panic(errors.Wrap(err, "invalid config file "+cfile))
			}
		}
	}

	setEnvValue("CRMD_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvValue("CRMD_SYSTEM_LOCATION", func(v string) { cfg.System.Location = v })
	setEnvBoolValue("CRMD_SYSTEM_SEED_DEMO", func(v bool) { cfg.System.SeedDemo = v })

	setEnvValue("CRMD_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvIntValue("CRMD_WEB_PORT", func(v int) { cfg.Web.Port = v })
	setEnvBoolValue("CRMD_WEB_DEBUG", func(v bool) { cfg.Web.Debug = v })

	setEnvValue("CRMD_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvValue("CRMD_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvIntValue("CRMD_DB_PORT", func(v int) { cfg.Database.Port = v })
	setEnvValue("CRMD_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvValue("CRMD_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvValue("CRMD_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvBoolValue("CRMD_DB_DEBUG", func(v bool) { cfg.Database.Debug = v })

	setEnvValue("CRMD_LOGGER_MODE", func(v string) { cfg.Logger.Mode = v })
	setEnvBoolValue("CRMD_LOGGER_FILE_ENABLE", func(v bool) { cfg.Logger.FileEnable = v })
	setEnvValue("CRMD_LOGGER_FILENAME", func(v string) { cfg.Logger.Filename = v })

	if cfg.Logger.Filename == "" {
		cfg.Logger.Filename = filepath.Join(cfg.System.Workdir, "crmd.log")
	}

	return &cfg
}
