// Package cli implements the facematch command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facematch/internal/app"
	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// Version is the CLI version
const Version = "0.1.0"

// rootOptions holds flags shared by every subcommand. Flags left unset keep
// the value loaded from the environment.
type rootOptions struct {
	galleryPath string
	strategy    string
	threshold   float64
	verbose     bool

	app *app.App
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "facematch",
		Short:         "Enrol, recognize and compare faces",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.galleryPath, "gallery", "", "gallery file (overrides GALLERY_PATH)")
	flags.StringVar(&opts.strategy, "strategy", "", "embedding or landmark (overrides MATCH_STRATEGY)")
	flags.Float64Var(&opts.threshold, "threshold", 0, "match threshold (overrides MATCH_THRESHOLD)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log pipeline events to stderr")

	root.AddCommand(
		newEnrolCommand(opts),
		newRecognizeCommand(opts),
		newCompareCommand(opts),
		newListCommand(opts),
	)
	return root
}

// withApp opens the pipeline for one command and closes it afterwards,
// including when the command fails
func (o *rootOptions) withApp(fn func(cmd *cobra.Command, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := o.open(cmd); err != nil {
			return err
		}
		defer func() {
			if cerr := o.close(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, o.app)
	}
}

func (o *rootOptions) open(cmd *cobra.Command) error {
	cfg, err := o.config(cmd)
	if err != nil {
		return err
	}

	logOut := io.Discard
	if o.verbose {
		logOut = cmd.ErrOrStderr()
	}
	logger := config.NewLoggerTo(logOut, cfg.Environment)

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	o.app = a
	return nil
}

func (o *rootOptions) config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("gallery") {
		cfg.GalleryBackend = config.BackendFile
		cfg.GalleryPath = o.galleryPath
	}
	if flags.Changed("strategy") {
		cfg.MatchStrategy = o.strategy
	}
	if flags.Changed("threshold") {
		cfg.MatchThreshold = o.threshold
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *rootOptions) close() error {
	if o.app == nil {
		return nil
	}
	err := o.app.Close()
	o.app = nil
	return err
}

// Execute runs the CLI until it finishes or receives SIGINT/SIGTERM
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		return 1
	}
	return 0
}

// describe prefixes the error with its code when it carries one
func describe(err error) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return fmt.Sprintf("error [%s]: %v", appErr.Code, err)
	}
	return fmt.Sprintf("error: %v", err)
}
