package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	clientConfigName = "config"
	clientConfigType = "yaml"
	clientConfigFile = "config.yaml"
)

const defaultClientYAML = `# fuel CLI configuration
# Flags and FUEL_* environment variables override these values.

addr: localhost:8443
# cacert: /path/to/ca.pem
# insecure: false
# plaintext: false
timeout: 30s
`

// Client is the CLI configuration.
type Client struct {
	Addr      string
	CACert    string
	Insecure  bool
	Plaintext bool
	Timeout   time.Duration
}

// ClientFlags registers the connection flags on fs.
func ClientFlags(fs *pflag.FlagSet) {
	fs.String("addr", "localhost:8443", "server address")
	fs.String("cacert", "", "CA certificate (PEM)")
	fs.Bool("insecure", false, "skip certificate verification (dev)")
	fs.Bool("plaintext", false, "connect without TLS (dev)")
	fs.Duration("timeout", 30*time.Second, "per-call timeout")
}

// LoadClient reads config.yaml from dir, creating a commented default on
// first run, and overlays environment variables and the flags in fs that
// were registered with ClientFlags. A missing config file is not an error.
func LoadClient(dir string, fs *pflag.FlagSet) (Client, error) {
	if err := ensureClientConfig(dir); err != nil {
		return Client{}, err
	}

	v := newViper()
	v.SetConfigName(clientConfigName)
	v.SetConfigType(clientConfigType)
	v.AddConfigPath(dir)
	if fs != nil {
		for _, name := range []string{"addr", "cacert", "insecure", "plaintext", "timeout"} {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(name, f); err != nil {
					return Client{}, fmt.Errorf("bind %s: %w", name, err)
				}
			}
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Client{}, fmt.Errorf("read config: %w", err)
		}
	}

	c := Client{
		Addr:      v.GetString("addr"),
		CACert:    v.GetString("cacert"),
		Insecure:  v.GetBool("insecure"),
		Plaintext: v.GetBool("plaintext"),
		Timeout:   v.GetDuration("timeout"),
	}
	if c.Addr == "" {
		return Client{}, errors.New("server address is empty (--addr or FUEL_ADDR)")
	}
	if c.Insecure && c.Plaintext {
		return Client{}, errors.New("--insecure and --plaintext are mutually exclusive")
	}
	return c, nil
}

func ensureClientConfig(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	path := filepath.Join(dir, clientConfigFile)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultClientYAML), 0o600)
}
