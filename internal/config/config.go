package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	defaults = map[string]interface{}{
		"verbose":              false,
		"api_port":             8080,
		"agent.algorithm":      "ed25519",
		"agent.name":           "agent",
		"agent.version":        "0.1.0",
		"agent.identityFile":   "identity.yaml",
		"auth.timestampWindow": "5m",
		"auth.nonceWindow":     "6m",
	}
)

func init() {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

func GetConfig() (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigName("didwba")
	viper.AddConfigPath("/etc/didwba/")
	viper.AddConfigPath("$HOME/.didwba")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("DIDWBA")
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error
			logrus.New().Warnf("no config found")
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	c := &Config{}

	c.agent, err = buildAgentConfig()
	if err != nil {
		return nil, errors.Wrap(err, "agent config")
	}

	c.auth = buildAuthConfig()

	if viper.GetBool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.WithField("level", "debug").Debug("setting log level")
	}

	return c, nil
}

type Config struct {
	agent *Agent
	auth  *Auth
}

func (c *Config) Agent() *Agent {
	return c.agent
}

func (c *Config) Auth() *Auth {
	return c.auth
}

func (c *Config) APIPort() int {
	return viper.GetInt("api_port")
}

// Agent holds the identity the daemon runs as and the profile it
// publishes.
type Agent struct {
	Domain       string
	Path         string
	Algorithm    string
	IdentityFile string

	Name         string
	Description  string
	Version      string
	Capabilities []string

	RegistryEndpoints []string
}

func buildAgentConfig() (*Agent, error) {
	a := &Agent{
		Domain:            viper.GetString("agent.domain"),
		Path:              viper.GetString("agent.path"),
		Algorithm:         viper.GetString("agent.algorithm"),
		IdentityFile:      viper.GetString("agent.identityFile"),
		Name:              viper.GetString("agent.name"),
		Description:       viper.GetString("agent.description"),
		Version:           viper.GetString("agent.version"),
		Capabilities:      viper.GetStringSlice("agent.capabilities"),
		RegistryEndpoints: viper.GetStringSlice("discovery.registries"),
	}

	if a.Domain == "" {
		return nil, errors.New("agent.domain is required")
	}

	return a, nil
}

// Auth bounds what the request middleware accepts.
type Auth struct {
	TimestampWindow time.Duration
	NonceWindow     time.Duration
}

func buildAuthConfig() *Auth {
	return &Auth{
		TimestampWindow: viper.GetDuration("auth.timestampWindow"),
		NonceWindow:     viper.GetDuration("auth.nonceWindow"),
	}
}
