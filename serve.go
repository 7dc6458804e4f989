package main

import (
	"fmt"
	"log/slog"
	"os"

	"git-analyse/packages/handlers"

	"github.com/spf13/cobra"
	"github.com/swinton/go-probot/probot"
)

const (
	envAppID          = "GITHUB_APP_ID"
	envPrivateKey     = "GITHUB_APP_PRIVATE_KEY"
	envPrivateKeyPath = "GITHUB_APP_PRIVATE_KEY_PATH"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a GitHub App and analyse repositories on install and on push to their default branch",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := loadPrivateKey(); err != nil {
		return err
	}
	if os.Getenv(envAppID) == "" {
		return fmt.Errorf("%s not set in environment", envAppID)
	}
	slog.Info("Starting GitHub App", "appID", os.Getenv(envAppID))

	pipeline, cleanup, err := newPipeline(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	probot.HandleEvent("push", handlers.NewPushHandler(pipeline))
	probot.HandleEvent("installation_repositories", handlers.NewInstallationHandler(pipeline))
	probot.Start()
	return nil
}

// loadPrivateKey copies the key file named by GITHUB_APP_PRIVATE_KEY_PATH into
// GITHUB_APP_PRIVATE_KEY, where probot reads it.
func loadPrivateKey() error {
	keyPath := os.Getenv(envPrivateKeyPath)
	if keyPath == "" {
		if os.Getenv(envPrivateKey) == "" {
			return fmt.Errorf("%s or %s must be set", envPrivateKey, envPrivateKeyPath)
		}
		return nil
	}

	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}
	if err := os.Setenv(envPrivateKey, string(keyData)); err != nil {
		return fmt.Errorf("failed to set private key: %w", err)
	}
	slog.Info("Private key loaded", "keyPath", keyPath)
	return nil
}
