package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/docbrain/docbrain-cli/internal/adapters/driven/document/gdocs"
	"github.com/docbrain/docbrain-cli/internal/adapters/driving/oauth"
)

// AuthConfig locates the Google OAuth client and token files.
type AuthConfig struct {
	// CredentialsFile is the installed-app client JSON from the Google Cloud console.
	CredentialsFile string

	// TokenFile receives the authorized token.
	TokenFile string

	// OpenBrowser opens the consent page. Defaults to oauth.OpenBrowser.
	OpenBrowser func(url string) error
}

// authConfig holds the current auth configuration.
var authConfig *AuthConfig

var (
	authTimeout   = 5 * time.Minute
	authNoBrowser bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to remote documents",
}

var authGDocsCmd = &cobra.Command{
	Use:   "gdocs",
	Short: "Authorize docbrain to read and edit a Google Doc",
	Long: `Runs the Google OAuth consent flow once and stores the token.

Create an OAuth client of type "Desktop app" in the Google Cloud console,
enable the Google Docs API and save the client JSON as
~/.docbrain/gdocs_credentials.json (or set document.gdocs_credentials).
The token is written to ~/.docbrain/gdocs_token.json unless
document.gdocs_token says otherwise.`,
	Args: cobra.NoArgs,
	RunE: runAuthGDocs,
}

// SetAuthConfig sets the configuration for the auth command.
func SetAuthConfig(config *AuthConfig) {
	authConfig = config
}

func init() {
	authGDocsCmd.Flags().BoolVar(&authNoBrowser, "no-browser", false, "print the consent URL without opening a browser")
	authCmd.AddCommand(authGDocsCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthGDocs(cmd *cobra.Command, _ []string) error {
	if authConfig == nil || authConfig.CredentialsFile == "" || authConfig.TokenFile == "" {
		return errors.New("google docs auth not configured")
	}

	cfg, err := gdocs.OAuthConfig(authConfig.CredentialsFile)
	if err != nil {
		return fmt.Errorf("%w\nDownload a Desktop app OAuth client JSON from the Google Cloud console "+
			"and save it as %s", err, authConfig.CredentialsFile)
	}

	state, err := oauth.GenerateState()
	if err != nil {
		return err
	}
	server := oauth.NewCallbackServer(0, state)
	if err := server.Start(); err != nil {
		return fmt.Errorf("starting callback server: %w", err)
	}
	defer server.Stop() //nolint:errcheck

	cfg.RedirectURL = server.RedirectURI()
	verifier := oauth2.GenerateVerifier()
	url := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	cmd.Println("Open this URL to authorize docbrain:")
	cmd.Printf("  %s\n\n", url)
	if !authNoBrowser {
		open := authConfig.OpenBrowser
		if open == nil {
			open = oauth.OpenBrowser
		}
		if err := open(url); err != nil {
			cmd.Printf("Could not open a browser (%v). Open the URL manually.\n", err)
		}
	}
	cmd.Println("Waiting for authorization...")

	ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
	defer cancel()

	code, err := server.WaitForCode(ctx)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}
	if err := gdocs.SaveToken(authConfig.TokenFile, tok); err != nil {
		return err
	}

	cmd.Printf("Saved the Google token to %s.\n", authConfig.TokenFile)
	cmd.Println("Run 'docbrain settings document --gdocs DOCUMENT_ID' if you have not chosen the document yet.")
	return nil
}
