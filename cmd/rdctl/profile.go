package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/fyrsmithlabs/reductiond/internal/config"
	"github.com/fyrsmithlabs/reductiond/pkg/client"
)

// Profile holds connection defaults read from rdctl.toml:
//
//	server  = "http://localhost:8080"
//	api_key = "sk-..."
//	timeout = "30s"
type Profile struct {
	Server  string          `toml:"server"`
	APIKey  config.Secret   `toml:"api_key"`
	Timeout config.Duration `toml:"timeout"`
}

// defaultProfilePath returns ~/.config/reductiond/rdctl.toml.
func defaultProfilePath() (string, error) {
	dir, err := config.DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "rdctl.toml"), nil
}

// loadProfile reads the profile at path. A missing file yields an empty
// profile; unknown keys are rejected so typos do not pass silently.
func loadProfile(path string) (*Profile, error) {
	var p Profile
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Profile{}, nil
		}
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in profile %s: %v", path, undecoded)
	}
	return &p, nil
}

// connection is the resolved server address and credentials.
type connection struct {
	server  string
	apiKey  string
	timeout time.Duration
}

// resolve merges flags, environment and profile, in that order of
// precedence, over the client defaults.
func resolve(flagServer, flagKey string, flagTimeout time.Duration, p *Profile) connection {
	c := connection{
		server:  client.DefaultURL,
		timeout: 30 * time.Second,
	}

	if p.Server != "" {
		c.server = p.Server
	}
	if p.APIKey.IsSet() {
		c.apiKey = p.APIKey.Value()
	}
	if p.Timeout > 0 {
		c.timeout = p.Timeout.Duration()
	}

	if v := os.Getenv("REDUCTIOND_URL"); v != "" {
		c.server = v
	}
	if v := os.Getenv("REDUCTIOND_API_KEY"); v != "" {
		c.apiKey = v
	}

	if flagServer != "" {
		c.server = flagServer
	}
	if flagKey != "" {
		c.apiKey = flagKey
	}
	if flagTimeout > 0 {
		c.timeout = flagTimeout
	}
	return c
}

func (c connection) client() *client.Client {
	return client.New(c.server, client.WithAPIKey(c.apiKey), client.WithTimeout(c.timeout))
}
