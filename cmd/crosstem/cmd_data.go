package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/crosstem/pkg/db"
	"github.com/japaniel/crosstem/pkg/dictionary"
)

func (a *app) preprocessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Convert upstream MorphyNet, UniMorph and etymology exports to crosstem data files",
	}

	var format string
	derivations := &cobra.Command{
		Use:   "derivations INPUT.tsv [OUTPUT.json]",
		Short: "Convert a derivational TSV into a graph document",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := dictionary.ParseFormat(format)
			if err != nil {
				return err
			}
			out := a.dir().DerivationsPath(a.cfg.Language)
			if len(args) == 2 {
				out = args[1]
			}
			stats, err := dictionary.ConvertDerivations(cmd.Context(), args[0], out, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d words from %d rows (%s, %d skipped)\n",
				out, stats.Words, stats.Rows, stats.Format, stats.Skipped)
			return nil
		},
	}
	derivations.Flags().StringVar(&format, "format", string(dictionary.FormatAuto), "input layout: auto, morphynet or unimorph")

	inflections := &cobra.Command{
		Use:   "inflections INPUT.tsv [OUTPUT.json]",
		Short: "Convert an inflectional TSV into an inflection document",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := a.dir().InflectionsPath(a.cfg.Language)
			if len(args) == 2 {
				out = args[1]
			}
			stats, err := dictionary.ConvertInflections(cmd.Context(), args[0], out, a.cfg.Language)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d lemmas from %d rows (%d skipped)\n",
				out, stats.Words, stats.Rows, stats.Skipped)
			return nil
		},
	}

	etymology := &cobra.Command{
		Use:   "etymology INPUT.csv [OUTPUT.json]",
		Short: "Convert the etymology CSV export into a JSON array",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := a.dir().EtymologyPath()
			if len(args) == 2 {
				out = args[1]
			}
			stats, err := dictionary.ConvertEtymology(cmd.Context(), args[0], out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records (%d skipped)\n", out, stats.Words, stats.Skipped)
			return nil
		},
	}

	all := &cobra.Command{
		Use:   "all MORPHYNET_DIR",
		Short: "Convert the derivational export of every supported language into the data directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := dictionary.BuildAll(cmd.Context(), args[0], a.cfg.DataDir, a.logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "built %d languages", len(summary.Built))
			if len(summary.Missing) > 0 {
				fmt.Fprintf(out, ", missing: %s", strings.Join(summary.Missing, " "))
			}
			fmt.Fprintln(out)
			if len(summary.Failed) > 0 {
				return fmt.Errorf("%d languages failed to convert", len(summary.Failed))
			}
			return nil
		},
	}

	cmd.AddCommand(derivations, inflections, etymology, all)
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	var languages string
	var withEtymology bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy the data directory into the SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := a.database()
			if err != nil {
				return err
			}
			im := dictionary.NewImporter(a.dir(), db.NewStore(conn), a.logger)
			if a.cfg.Workers > 0 {
				im.Workers = a.cfg.Workers
			}
			summary, err := im.Import(cmd.Context(), parseLanguages(languages), withEtymology)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported derivations for %d languages, inflections for %d", len(summary.Derivations), len(summary.Inflections))
			if withEtymology {
				fmt.Fprintf(out, ", %d etymology records", summary.Etymology)
			}
			fmt.Fprintln(out)
			for _, m := range summary.Missing {
				a.logger.Warn("no data file", slog.String("dataset", m))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&languages, "languages", "", "comma separated codes (default: all supported)")
	cmd.Flags().BoolVar(&withEtymology, "etymology", false, "also import etymology.json")
	return cmd
}

func (a *app) downloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download datasets that are too large to ship",
	}
	var force bool
	etymology := &cobra.Command{
		Use:   "etymology",
		Short: "Download the etymology dataset (about 1 GB) into the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.dir().EtymologyPath()
			if err := dictionary.EnsureEtymology(cmd.Context(), path, dictionary.DownloadOptions{Force: force, Logger: a.logger}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	etymology.Flags().BoolVar(&force, "force", false, "download even if the file exists")
	cmd.AddCommand(etymology)
	return cmd
}
