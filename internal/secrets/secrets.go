// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from the environment, a
// .env file, and a directory of plain-text files. In the directory form each
// file is one secret: the filename is the key name and the file contents
// (trimmed) are the value.
//
// Supported key files: x-api-key, x-api-key-secret, x-access-token,
// x-access-token-secret, anthropic-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names for the required credentials.
const (
	EnvXAPIKey            = "X_API_KEY"
	EnvXAPIKeySecret      = "X_API_KEY_SECRET"
	EnvXAccessToken       = "X_ACCESS_TOKEN"
	EnvXAccessTokenSecret = "X_ACCESS_TOKEN_SECRET"
	EnvAnthropicAPIKey    = "ANTHROPIC_API_KEY"
)

// fileName maps an environment variable name to its .secrets/ file name
// (X_API_KEY -> x-api-key).
func fileName(env string) string {
	return strings.ReplaceAll(strings.ToLower(env), "_", "-")
}

// CredentialError reports required secrets that are blank.
type CredentialError struct {
	Missing []string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("missing credentials: %s", strings.Join(e.Missing, ", "))
}

// XCredentials are the four OAuth 1.0a secrets for the X API.
type XCredentials struct {
	APIKey            string
	APIKeySecret      string
	AccessToken       string
	AccessTokenSecret string
}

// Validate returns a *CredentialError naming every blank field.
func (c XCredentials) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{EnvXAPIKey, c.APIKey},
		{EnvXAPIKeySecret, c.APIKeySecret},
		{EnvXAccessToken, c.AccessToken},
		{EnvXAccessTokenSecret, c.AccessTokenSecret},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &CredentialError{Missing: missing}
	}
	return nil
}

// RequireAnthropic returns a *CredentialError if key is blank.
func RequireAnthropic(key string) error {
	if strings.TrimSpace(key) == "" {
		return &CredentialError{Missing: []string{EnvAnthropicAPIKey}}
	}
	return nil
}

// Set is a resolved view over all credential sources.
type Set struct {
	files map[string]string
}

// Resolve loads envFile (if it exists) into the process environment without
// overriding variables that are already set, then reads dir. Either source
// may be absent.
func Resolve(envFile, dir string) (*Set, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("loading %s: %w", envFile, err)
			}
		}
	}
	files, err := Load(dir)
	if err != nil {
		return nil, err
	}
	return &Set{files: files}, nil
}

// Get returns the value for an environment-style name. The process
// environment wins over the secrets directory.
func (s *Set) Get(env string) string {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	if s == nil {
		return ""
	}
	return s.files[fileName(env)]
}

// X returns the X API credentials. It does not validate them.
func (s *Set) X() XCredentials {
	return XCredentials{
		APIKey:            s.Get(EnvXAPIKey),
		APIKeySecret:      s.Get(EnvXAPIKeySecret),
		AccessToken:       s.Get(EnvXAccessToken),
		AccessTokenSecret: s.Get(EnvXAccessTokenSecret),
	}
}

// Anthropic returns the scoring capability key.
func (s *Set) Anthropic() string {
	return s.Get(EnvAnthropicAPIKey)
}

// Names lists the secret files found, for startup logging.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.files))
	for k := range s.files {
		names = append(names, k)
	}
	return names
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
