package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igcourier/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Instagram cookies",
	Long: `Manage stored Instagram cookies securely.

Cookies are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your cookies or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [account]",
	Short: "Store an Instagram cookie securely",
	Long: `Store an Instagram cookie securely in the system keychain or an
encrypted file.

You will be prompted for:
  - Account name (if not provided)
  - Cookie (the full Cookie header value, must contain csrftoken=...)

To get the cookie:
1. Log into Instagram in your browser
2. Open Developer Tools (F12) and reload the page
3. Copy the Cookie request header of any instagram.com request`,
	Example: `  # Interactive login
  igcourier auth login

  # Login with account name
  igcourier auth login myaccount`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <account>",
	Short: "Remove a stored cookie",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with masked cookie values.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	if name == "" {
		fmt.Print("Account name: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read account name: %w", err)
		}
		name = strings.TrimSpace(line)
	}
	if name == "" {
		return fmt.Errorf("account name is required")
	}

	fmt.Print("Cookie (input hidden): ")
	cookieBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read cookie: %w", err)
	}
	cookie := strings.TrimSpace(string(cookieBytes))
	if cookie == "" {
		return fmt.Errorf("cookie is required")
	}
	if !strings.Contains(cookie, "csrftoken=") {
		fmt.Println("Warning: the cookie does not contain a csrftoken field; feed requests may be rejected.")
	}

	if err := manager.Store(&auth.Account{Name: name, Cookie: cookie}); err != nil {
		return fmt.Errorf("failed to store cookie: %w", err)
	}

	fmt.Printf("Cookie stored for account %q.\n", name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := args[0]
	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("failed to remove cookie: %w", err)
	}

	fmt.Printf("Cookie removed for account %q.\n", name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		fmt.Println("No stored accounts.")
		return nil
	}

	for _, account := range accounts {
		masked := auth.SanitizeAccount(account)
		fmt.Printf("%-24s %s (modified %s)\n", masked.Name, masked.Cookie, masked.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}
