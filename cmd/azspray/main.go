package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	golog "github.com/fclairamb/go-log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mmcdole/azspray/pkg/aad"
	"github.com/mmcdole/azspray/pkg/candidates"
	"github.com/mmcdole/azspray/pkg/classify"
	"github.com/mmcdole/azspray/pkg/logging"
	"github.com/mmcdole/azspray/pkg/metrics"
	"github.com/mmcdole/azspray/pkg/report"
	"github.com/mmcdole/azspray/pkg/spray"
	"github.com/mmcdole/azspray/pkg/status"
)

var version = "dev" // Will be set during build

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	cobra.CheckErr(err)
}

// options holds everything the flags collect before it is merged with the
// config file
type options struct {
	cfgFile     string
	showVersion bool
	users       []string
	passwords   []string
	flags       Config
}

func newRootCmd() *cobra.Command {
	cmd, _ := newCommand()
	return cmd
}

func newCommand() (*cobra.Command, *options) {
	opts := &options{flags: DefaultConfig()}

	cmd := &cobra.Command{
		Use:           "azspray [flags] [user:password | file | -]...",
		Short:         "Azure AD password spray",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `azspray - credential validation against the Azure AD token endpoint

Candidates are given either as user:password records (positional arguments,
files with one record per line, or stdin when none are given) or as user and
password lists with -u and -p, which are sprayed user by user.

Findings are written to stdout, one per line:
    {restriction}:{user}:{password}   valid credential (restriction may be empty)
    :{user}:                          valid user, password unknown (--confirm-users)
    Disabled:{user}:                  disabled account

Diagnostics go to stderr, or to --log-file. Settings may also come from a JSON
config file; flags given on the command line win:
{
    "base_url": "https://login.microsoft.com",
    "domain": "corp.com",
    "workers": 4,
    "timeout": 30,
    "continue_on_error": false,
    "confirm_users": false,
    "verbosity": 1,
    "log_level": "info",
    "log_file": "azspray.log",
    "metrics_addr": "127.0.0.1:9464",
    "progress_interval": 30,
    "status_file": "azspray.status"
}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "azspray %s\n", version)
				return nil
			}
			return run(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.cfgFile, "config", "c", "", "path to JSON config file")
	f.BoolVar(&opts.showVersion, "version", false, "show version information")
	f.StringSliceVarP(&opts.users, "users", "u", nil, "usernames: values, files or - for stdin (list mode)")
	f.StringSliceVarP(&opts.passwords, "passwords", "p", nil, "passwords: values, files or - for stdin (list mode)")
	f.BoolVarP(&opts.flags.UserAsPassword, "user-as-password", "x", false, "try each username as its password first (list mode)")
	f.StringVarP(&opts.flags.Domain, "domain", "d", "", "domain appended to usernames without @")
	f.IntVarP(&opts.flags.Workers, "workers", "w", opts.flags.Workers, "concurrent attempts")
	f.StringVar(&opts.flags.BaseURL, "base-url", "", "token endpoint host (default "+aad.DefaultBaseURL+")")
	f.StringVar(&opts.flags.Cloud, "cloud", "", "cloud whose login host is used when --base-url is not set: public, china, usgov")
	f.IntVarP(&opts.flags.Timeout, "timeout", "t", opts.flags.Timeout, "request timeout in seconds")
	f.StringVarP(&opts.flags.UserAgent, "user-agent", "A", opts.flags.UserAgent, "User-Agent header")
	f.BoolVar(&opts.flags.ContinueOnError, "continue-on-error", false, "log transport failures and keep spraying")
	f.BoolVar(&opts.flags.ConfirmUsers, "confirm-users", false, "treat a wrong password as proof the user exists and keep trying it")
	f.CountVarP(&opts.flags.Verbosity, "verbose", "v", "increase verbosity (-v info, -vv debug)")
	f.StringVar(&opts.flags.LogLevel, "log-level", "", "log level: debug, info, warn, error (overrides -v)")
	f.StringVar(&opts.flags.LogFile, "log-file", "", "write diagnostics to this file instead of stderr")
	f.StringVar(&opts.flags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.IntVar(&opts.flags.ProgressInterval, "progress-interval", opts.flags.ProgressInterval, "seconds between progress log lines")
	f.StringVar(&opts.flags.StatusFile, "status-file", "", "rewrite a counters snapshot to this file every progress interval")

	return cmd, opts
}

// resolveConfig returns the flag values, or the config file with every
// explicitly set flag applied on top
func resolveConfig(cmd *cobra.Command, opts *options) (Config, error) {
	if opts.cfgFile == "" {
		return opts.flags, nil
	}

	path := opts.cfgFile
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = abs
	}

	var cfg Config
	if err := LoadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	fl := opts.flags
	overrides := map[string]func(){
		"user-as-password":  func() { cfg.UserAsPassword = fl.UserAsPassword },
		"domain":            func() { cfg.Domain = fl.Domain },
		"workers":           func() { cfg.Workers = fl.Workers },
		"base-url":          func() { cfg.BaseURL = fl.BaseURL },
		"cloud":             func() { cfg.Cloud = fl.Cloud },
		"timeout":           func() { cfg.Timeout = fl.Timeout },
		"user-agent":        func() { cfg.UserAgent = fl.UserAgent },
		"continue-on-error": func() { cfg.ContinueOnError = fl.ContinueOnError },
		"confirm-users":     func() { cfg.ConfirmUsers = fl.ConfirmUsers },
		"verbose":           func() { cfg.Verbosity = fl.Verbosity },
		"log-level":         func() { cfg.LogLevel = fl.LogLevel },
		"log-file":          func() { cfg.LogFile = fl.LogFile },
		"metrics-addr":      func() { cfg.MetricsAddr = fl.MetricsAddr },
		"progress-interval": func() { cfg.ProgressInterval = fl.ProgressInterval },
		"status-file":       func() { cfg.StatusFile = fl.StatusFile },
	}
	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	return cfg, nil
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(opts.passwords) > 0 && len(opts.users) == 0 {
		return fmt.Errorf("--passwords requires --users")
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if err := logging.Initialize(cfg.LogFile, level); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger := logging.App
	defer logger.Close()

	baseURL, err := cfg.ResolveBaseURL()
	if err != nil {
		return err
	}
	client, err := aad.NewClient(aad.Config{
		BaseURL:   baseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   time.Duration(cfg.Timeout) * time.Second,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	reader := candidates.NewReader()
	reader.Stdin = cmd.InOrStdin()
	seq, err := reader.Load(candidates.Options{
		Pairs:          args,
		Users:          opts.users,
		Passwords:      opts.passwords,
		Domain:         cfg.Domain,
		UserAsPassword: cfg.UserAsPassword,
	}, logger)
	if err != nil {
		return err
	}

	var recorder metrics.Recorder = metrics.NewNoop()
	if cfg.MetricsAddr != "" {
		m := metrics.New()
		srv, err := serveMetrics(cfg.MetricsAddr, m.Handler(), logger)
		if err != nil {
			return err
		}
		defer shutdownMetrics(srv, logger)
		recorder = m
	}

	state := spray.NewState(report.New(cmd.OutOrStdout()), logger)
	sprayer, err := spray.New(spray.Config{
		Workers:         cfg.Workers,
		ContinueOnError: cfg.ContinueOnError,
	}, client, state,
		spray.WithClassifier(classify.Classifier{ConfirmUsersOnMismatch: cfg.ConfirmUsers}),
		spray.WithLogger(logger),
		spray.WithMetrics(recorder),
	)
	if err != nil {
		return fmt.Errorf("failed to create sprayer: %w", err)
	}

	heartbeat, err := status.New(time.Duration(cfg.ProgressInterval)*time.Second, sprayer, logger)
	if err != nil {
		return err
	}
	if cfg.StatusFile != "" {
		heartbeat.SetStatusFile(afero.NewOsFs(), cfg.StatusFile)
	}

	logger.Info("Starting spray", "version", version, "endpoint", client.Endpoint(), "workers", cfg.Workers)
	heartbeat.Start()
	err = sprayer.Run(cmd.Context(), seq)
	heartbeat.Stop()

	if errors.Is(err, spray.ErrInterrupted) {
		logger.Warn("Spray interrupted, findings so far were reported")
	}
	return err
}

func serveMetrics(addr string, handler http.Handler, logger golog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "error", err)
		}
	}()

	logger.Info("Serving metrics", "addr", ln.Addr().String())
	return srv, nil
}

func shutdownMetrics(srv *http.Server, logger golog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Metrics server shutdown", "error", err)
	}
}
