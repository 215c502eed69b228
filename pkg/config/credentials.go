package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Credentials for the marketplace account.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// CredentialStore reads and writes the credentials file, prompting
// interactively when it does not exist yet.
type CredentialStore struct {
	Path  string
	Stdin io.Reader // defaults to os.Stdin
}

// Resolve returns stored credentials, or prompts for them. The second return
// value reports that the credentials were freshly entered and should be saved
// after the first successful login.
func (s *CredentialStore) Resolve() (Credentials, bool, error) {
	creds, err := s.Load()
	if err == nil && creds.Username != "" && creds.Password != "" {
		return creds, false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return Credentials{}, false, err
	}

	creds, err = s.prompt()
	if err != nil {
		return Credentials{}, false, err
	}
	return creds, true, nil
}

func (s *CredentialStore) Load() (Credentials, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Credentials{}, err
	}
	var c Credentials
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("parsing %s: %w", s.Path, err)
	}
	return c, nil
}

func (s *CredentialStore) Save(c Credentials) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o600)
}

func (s *CredentialStore) prompt() (Credentials, error) {
	in := s.Stdin
	if in == nil {
		in = os.Stdin
	}
	reader := bufio.NewReader(in)

	fmt.Print("Enter username: ")
	username, err := reader.ReadString('\n')
	if err != nil && username == "" {
		return Credentials{}, err
	}
	username = strings.TrimSpace(username)

	fmt.Print("Enter password: ")
	var password string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Println()
		if err != nil {
			return Credentials{}, err
		}
		password = string(raw)
	} else {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return Credentials{}, err
		}
		password = strings.TrimSpace(line)
	}

	return Credentials{Username: username, Password: password}, nil
}
