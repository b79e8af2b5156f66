package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/vincentbai/browsetrace-dashboard/internal/auth"
	"github.com/vincentbai/browsetrace-dashboard/internal/client"
	"github.com/vincentbai/browsetrace-dashboard/internal/config"
	"github.com/vincentbai/browsetrace-dashboard/internal/database"
	"github.com/vincentbai/browsetrace-dashboard/internal/ingest"
	"github.com/vincentbai/browsetrace-dashboard/internal/links"
	"github.com/vincentbai/browsetrace-dashboard/internal/logging"
	"github.com/vincentbai/browsetrace-dashboard/internal/server"
	"github.com/vincentbai/browsetrace-dashboard/internal/tlsutil"
)

var version = "0.1.0-dev"

var (
	configFile string

	serverURL string
	password  string
	insecure  bool

	route    string
	ext      string
	redirect string
	copyURL  bool
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF00FF")).
			Padding(0, 2)
	passwordStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF00"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "browsetrace-dashboard",
		Short: "Visitor statistics dashboard and link redirector",
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (YAML)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the statistics server",
		Run:   runServe,
	}

	hashCmd := &cobra.Command{
		Use:   "hash <password>",
		Short: "Print the digest the login form submits for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Println(digest)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all records and links on a running server",
		RunE:  runClear,
	}
	clearCmd.Flags().StringVarP(&serverURL, "url", "u", "https://127.0.0.1:5000", "Server base URL")
	clearCmd.Flags().StringVarP(&password, "password", "p", "", "Login password (required)")
	clearCmd.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	clearCmd.MarkFlagRequired("password")

	linkCmd := &cobra.Command{
		Use:   "link",
		Short: "Register a redirect link on a running server",
		RunE:  runLink,
	}
	linkCmd.Flags().StringVarP(&serverURL, "url", "u", "https://127.0.0.1:5000", "Server base URL")
	linkCmd.Flags().StringVarP(&password, "password", "p", "", "Login password (required)")
	linkCmd.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	linkCmd.Flags().StringVar(&route, "route", "", "Link path, defaults to "+links.DefaultRoute)
	linkCmd.Flags().StringVar(&ext, "ext", "", "File extension appended to the route")
	linkCmd.Flags().StringVar(&redirect, "redirect", "", "Redirect target (required)")
	linkCmd.Flags().BoolVar(&copyURL, "copy", false, "Copy the generated link to the clipboard")
	linkCmd.MarkFlagRequired("password")
	linkCmd.MarkFlagRequired("redirect")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("browsetrace-dashboard version %s\n", version)
		},
	}

	rootCmd.AddCommand(serveCmd, hashCmd, clearCmd, linkCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal(err)
	}
	logger, logCloser, err := logging.Open(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer logCloser.Close()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal("Failed to create data directory:", err)
	}

	db, err := database.NewDatabase(cfg.DBPath())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	var certPath, keyPath string
	if cfg.Server.TLS {
		certPath, keyPath = cfg.CertPaths()
		created, err := tlsutil.EnsureSelfSigned(certPath, keyPath)
		if err != nil {
			log.Fatal(err)
		}
		if created {
			logger.Warn("Generated self-signed certificate", "cert", certPath, "key", keyPath)
		}
	}

	// A new password every start; only its digest is kept.
	plain, err := auth.GeneratePassword(cfg.Auth.PasswordLength)
	if err != nil {
		log.Fatal(err)
	}
	digest, err := auth.HashPassword(plain)
	if err != nil {
		log.Fatal(err)
	}

	sessions, err := auth.NewSessionManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, cfg.Auth.MaxAttempts, cfg.Server.TLS)
	if err != nil {
		log.Fatal(err)
	}

	recorder, err := ingest.NewRecorder(db, cfg.Ingest.Workers, cfg.Ingest.Queue, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := recorder.Close(10 * time.Second); err != nil {
			logger.Error("Insert queue did not drain", "error", err)
		}
		inserted, failed := recorder.Stats()
		logger.Info("Insert queue closed", "inserted", inserted, "failed", failed)
	}()

	srv, err := server.NewServer(db, server.Options{
		Address:        cfg.Address(),
		PasswordDigest: digest,
		Sessions:       sessions,
		Recorder:       recorder,
		RatePerSecond:  cfg.Ingest.RatePerSecond,
		Burst:          cfg.Ingest.Burst,
		LoginRate:      cfg.Auth.LoginRate,
		LoginBurst:     cfg.Auth.LoginBurst,
		TrustProxy:     cfg.Server.TrustProxy,
		ChartWidth:     cfg.Dashboard.ChartWidth,
		ChartHeight:    cfg.Dashboard.ChartHeight,
		TLSCert:        certPath,
		TLSKey:         keyPath,
		Logger:         logger,
	})
	if err != nil {
		log.Fatal(err)
	}

	scheme := "http"
	if cfg.Server.TLS {
		scheme = "https"
	}
	fmt.Println(bannerStyle.Render(fmt.Sprintf("Statistics: %s://%s/statistics", scheme, cfg.Address())))
	fmt.Println("Password: " + passwordStyle.Render(plain))
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped", "error", err)
	}
}

func newClient(ctx context.Context) (*client.Client, error) {
	logger, _, err := logging.Open(config.LogConfig{Level: "warn", Format: "text"})
	if err != nil {
		return nil, err
	}
	var opts []client.Option
	if insecure {
		opts = append(opts, client.WithInsecureTLS())
	}
	c, err := client.New(serverURL, logger, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Login(ctx, password); err != nil {
		return nil, err
	}
	return c, nil
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := newClient(ctx)
	if err != nil {
		return err
	}
	return clearDatabase(ctx, c, os.Stdin, os.Stdout)
}

// clearDatabase runs the confirm flow on a terminal. Failures are reported
// by the prompter or the client logger, never as a command error.
func clearDatabase(ctx context.Context, c *client.Client, in io.Reader, out io.Writer) error {
	prompter := &client.TerminalPrompter{
		In:  in,
		Out: out,
		OnReload: func() {
			records, err := c.Records(ctx)
			if err != nil {
				fmt.Fprintln(out, "Failed to reload records:", err)
				return
			}
			fmt.Fprintf(out, "%d records remain\n", len(records))
		},
	}
	c.ClearDatabase(ctx, prompter)
	return nil
}

func runLink(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := newClient(ctx)
	if err != nil {
		return err
	}

	req, err := links.NewRequest(c.BaseURL(), route, ext, redirect)
	if err != nil {
		return err
	}
	fmt.Println(req.GeneratedLink)

	// The link is shown even when registration fails.
	if err := c.GenerateLink(ctx, req); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}

	if copyURL {
		if err := client.CopyText(req.GeneratedLink); err != nil {
			return err
		}
		fmt.Println(client.CopiedMessage)
	}
	return nil
}
