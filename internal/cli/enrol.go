package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facematch/internal/app"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".webp": true,
}

type enrolOptions struct {
	image    string
	personID string
	dir      string
}

func newEnrolCommand(root *rootOptions) *cobra.Command {
	opts := &enrolOptions{}

	cmd := &cobra.Command{
		Use:   "enrol",
		Short: "Add a face sample to the gallery",
		Long: `Add a face sample to the gallery.

With --image and --id a single image is enrolled under that identity.
With --dir every image in the directory is enrolled, using the file name
without extension as the identity.`,
		Example: `  facematch enrol --image photos/alice.jpg --id alice
  facematch enrol --image https://example.com/bob.png --id bob
  facematch enrol --dir photos/`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.validate()
		},
		RunE: root.withApp(func(cmd *cobra.Command, a *app.App) error {
			if opts.dir != "" {
				return enrolDir(cmd, a, opts.dir)
			}
			if err := a.Service.Enrol(cmd.Context(), opts.image, opts.personID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enrolled %s\n", strings.TrimSpace(opts.personID))
			return nil
		}),
	}

	cmd.Flags().StringVar(&opts.image, "image", "", "image path or http(s) URL")
	cmd.Flags().StringVar(&opts.personID, "id", "", "identity to enrol the face under")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "directory of images named after their identity")
	cmd.MarkFlagsRequiredTogether("image", "id")
	cmd.MarkFlagsMutuallyExclusive("image", "dir")
	cmd.MarkFlagsMutuallyExclusive("id", "dir")
	return cmd
}

func (o *enrolOptions) validate() error {
	if o.dir == "" && o.image == "" {
		return fmt.Errorf("either --image with --id or --dir is required")
	}
	return nil
}

// enrolDir enrols every image in dir, in file name order. Failures are
// reported per file and do not stop the batch.
func enrolDir(cmd *cobra.Command, a *app.App, dir string) error {
	files, err := listImages(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found in %s", dir)
	}

	stderr := cmd.ErrOrStderr()
	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("enrolling"),
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var failed []string
	for _, path := range files {
		if err := cmd.Context().Err(); err != nil {
			return err
		}

		personID := identityFromFile(path)
		if err := a.Service.Enrol(cmd.Context(), path, personID); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %s", filepath.Base(path), describe(err)))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "enrolled %d of %d images\n", len(files)-len(failed), len(files))
	for _, f := range failed {
		fmt.Fprintf(stderr, "  %s\n", f)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d images failed", len(failed), len(files))
	}
	return nil
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func identityFromFile(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
