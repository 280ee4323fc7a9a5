package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// credentials for a remote dataset registry, stored next to the user's other
// tool configs. Only the token gates remote pulls; local datasets never need it.
type credentials struct {
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".labelclean", "config.yaml"), nil
}

func loadCredentials() (*credentials, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &credentials{}, nil
	}
	if err != nil {
		return nil, err
	}
	var creds credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func saveCredentials(creds *credentials) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

var loginFlags struct {
	username string
	token    string
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store registry credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		username := loginFlags.username
		token := loginFlags.token

		reader := bufio.NewReader(os.Stdin)
		if username == "" {
			fmt.Print("username: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return err
			}
			username = strings.TrimSpace(line)
		}
		if token == "" {
			fmt.Print("token: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return err
			}
			token = strings.TrimSpace(line)
		}

		if err := saveCredentials(&credentials{Username: username, Token: token}); err != nil {
			return err
		}
		fmt.Printf("logged in as %s\n", username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		fmt.Println("logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the logged-in username",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := loadCredentials()
		if err != nil {
			return err
		}
		if creds.Username == "" {
			return fmt.Errorf("not logged in")
		}
		fmt.Println(creds.Username)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginFlags.username, "username", "", "registry username")
	loginCmd.Flags().StringVar(&loginFlags.token, "token", "", "registry API token")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
