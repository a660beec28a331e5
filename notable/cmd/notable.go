// Command-line client for a notable server
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"time"

	"notable/notable/client"
	"notable/notable/utils/apperrors"
	"notable/notable/utils/color"

	"github.com/spf13/cobra"
	"golang.org/x/net/publicsuffix"
)

const defaultServer = "http://localhost:8000"

// credentials is what `notable login` leaves on disk.
type credentials struct {
	Server    string    `json:"server"`
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type cli struct {
	server    string
	credsPath string
	noColor   bool
	timeout   time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.ColorError("error: ")+apperrors.PublicMessage(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "notable",
		Short:         "Read and write notable notes from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.noColor {
				color.Disable()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.server, "server", envOr("NOTABLE_SERVER", ""), "server base URL (default "+defaultServer+")")
	root.PersistentFlags().StringVar(&c.credsPath, "credentials", envOr("NOTABLE_CREDENTIALS", defaultCredsPath()), "where the login token is stored")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 60*time.Second, "request timeout")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.listCmd(),
		c.showCmd(),
		c.newCmd(),
		c.editCmd(),
		c.deleteCmd(),
		c.summarizeCmd(),
		c.exportCmd(),
		c.archiveCmd(),
		userCmd(),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultCredsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".notable-credentials.json"
	}
	return filepath.Join(dir, "notable", "credentials.json")
}

func (c *cli) loadCreds() (*credentials, error) {
	data, err := os.ReadFile(c.credsPath)
	if errors.Is(err, os.ErrNotExist) {
		return &credentials{}, nil
	}
	if err != nil {
		return nil, err
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.credsPath, err)
	}
	return &creds, nil
}

func (c *cli) saveCreds(creds *credentials) error {
	if err := os.MkdirAll(filepath.Dir(c.credsPath), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.credsPath, data, 0o600)
}

// client builds an API client from the flags and the stored credentials.
// The --server flag wins over the server recorded at login.
func (c *cli) client() (*client.Client, error) {
	creds, err := c.loadCreds()
	if err != nil {
		return nil, err
	}
	server := c.server
	if server == "" {
		server = creds.Server
	}
	if server == "" {
		server = defaultServer
	}
	token := creds.Token
	if creds.Server != "" && creds.Server != server {
		token = ""
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return client.New(server, token, &http.Client{Jar: jar, Timeout: c.timeout}), nil
}

func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}
