// Package config holds the connection credentials of a dbcon.DB and
// loads them from YAML files.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"github.com/syssam/dbcon/dialect"
)

// Config is the credential record of one connection. It is treated as
// immutable once handed to dbcon.New.
type Config struct {
	Dialect  string `yaml:"dialect" validate:"required,oneof=mysql postgres sqlite"`
	Hostname string `yaml:"hostname" validate:"required_unless=Dialect sqlite"`
	Port     int    `yaml:"port" validate:"gte=0,lte=65535"`
	Username string `yaml:"username" validate:"required_unless=Dialect sqlite"`
	Password string `yaml:"password"`
	Database string `yaml:"database" validate:"required"`
	// Params are appended to the DSN as driver parameters.
	Params map[string]string `yaml:"params"`
	// Session variables set right after connecting.
	Session map[string]string `yaml:"session"`
}

// Default ports per dialect.
const (
	DefaultMySQLPort    = 3306
	DefaultPostgresPort = 5432
)

// Load reads a YAML config file. ${VAR} references are expanded from the
// environment before parsing, so secrets can stay out of the file.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(b []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &c); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) setDefaults() {
	if c.Dialect == "" {
		c.Dialect = dialect.MySQL
	}
	if c.Port == 0 {
		switch c.Dialect {
		case dialect.MySQL:
			c.Port = DefaultMySQLPort
		case dialect.Postgres:
			c.Port = DefaultPostgresPort
		}
	}
}

// Validate checks the required fields for the configured dialect.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// DSN renders the data source name understood by the dialect's driver.
// MySQL and PostgreSQL connections request UTF-8 client encoding.
func (c Config) DSN() string {
	switch c.Dialect {
	case dialect.Postgres:
		return c.postgresDSN()
	case dialect.SQLite:
		return c.sqliteDSN()
	default:
		return c.mysqlDSN()
	}
}

func (c Config) address() string {
	port := c.Port
	if port == 0 {
		port = DefaultMySQLPort
		if c.Dialect == dialect.Postgres {
			port = DefaultPostgresPort
		}
	}
	return net.JoinHostPort(c.Hostname, strconv.Itoa(port))
}

func (c Config) mysqlDSN() string {
	mc := mysql.NewConfig()
	mc.User = c.Username
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = c.address()
	mc.DBName = c.Database
	mc.Params = map[string]string{"charset": "utf8"}
	for k, v := range c.Params {
		mc.Params[k] = v
	}
	return mc.FormatDSN()
}

func (c Config) postgresDSN() string {
	q := url.Values{}
	q.Set("client_encoding", "UTF8")
	for k, v := range c.Params {
		q.Set(k, v)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.address(),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (c Config) sqliteDSN() string {
	if len(c.Params) == 0 {
		return c.Database
	}
	q := url.Values{}
	for k, v := range c.Params {
		q.Set(k, v)
	}
	return "file:" + c.Database + "?" + q.Encode()
}

// String returns the DSN with the password masked, for logging.
func (c Config) String() string {
	masked := c
	if masked.Password != "" {
		masked.Password = "xxxxx"
	}
	return masked.Dialect + "://" + masked.DSN()
}
