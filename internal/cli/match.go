package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facematch/internal/app"
)

func newRecognizeCommand(root *rootOptions) *cobra.Command {
	var image string

	cmd := &cobra.Command{
		Use:     "recognize",
		Short:   "Find the gallery identity closest to a face",
		Example: `  facematch recognize --image photos/unknown.jpg`,
		Args:    cobra.NoArgs,
		RunE: root.withApp(func(cmd *cobra.Command, a *app.App) error {
			result, err := a.Service.Recognize(cmd.Context(), image)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "PERSON\tSCORE\tMATCHED")
			fmt.Fprintf(w, "%s\t%.4f\t%t\n", result.PersonID, result.Score, result.Matched())
			return w.Flush()
		}),
	}

	cmd.Flags().StringVar(&image, "image", "", "image path or http(s) URL")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func newCompareCommand(root *rootOptions) *cobra.Command {
	var refA, refB string

	cmd := &cobra.Command{
		Use:     "compare",
		Short:   "Decide whether two images show the same person",
		Example: `  facematch compare --a stored/alice.jpg --b https://example.com/selfie.jpg`,
		Args:    cobra.NoArgs,
		RunE: root.withApp(func(cmd *cobra.Command, a *app.App) error {
			result, err := a.Service.Compare(cmd.Context(), refA, refB)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "MATCH\tSCORE\tSTRATEGY")
			fmt.Fprintf(w, "%t\t%.4f\t%s\n", result.IsMatch, result.Score, result.Strategy)
			return w.Flush()
		}),
	}

	cmd.Flags().StringVar(&refA, "a", "", "first image path or URL")
	cmd.Flags().StringVar(&refB, "b", "", "second image path or URL")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")
	return cmd
}

func newListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List enrolled identities in enrolment order",
		Args:  cobra.NoArgs,
		RunE: root.withApp(func(cmd *cobra.Command, a *app.App) error {
			g, err := a.Gallery.LoadAll(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if g.Len() == 0 {
				fmt.Fprintln(out, "No identities enrolled.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "PERSON\tSAMPLES")
			for _, id := range g.IDs() {
				fmt.Fprintf(w, "%s\t%d\n", id, len(g.Samples(id)))
			}
			return w.Flush()
		}),
	}
}
