package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/japaniel/crosstem/pkg/analyzer"
	"github.com/japaniel/crosstem/pkg/crosstem"
	"github.com/japaniel/crosstem/pkg/derivation"
	"github.com/japaniel/crosstem/pkg/etymology"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (a *app) stemCmd() *cobra.Command {
	var noDerivations, explain bool
	cmd := &cobra.Command{
		Use:   "stem WORD...",
		Short: "Print the derivational root of each word",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.stemmer(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			out := cmd.OutOrStdout()
			for _, w := range args {
				fmt.Fprintf(out, "%s\t%s\n", w, s.StemWith(w, !noDerivations))
				if explain && !noDerivations {
					for _, c := range s.Candidates(w) {
						fmt.Fprintf(out, "  %s (%s) depth=%d productivity=%d score=%d\n",
							c.Word, c.POS, c.Depth, c.Productivity, c.Score)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noDerivations, "no-derivations", false, "return words unchanged")
	cmd.Flags().BoolVar(&explain, "explain", false, "list the scored root candidates")
	return cmd
}

func (a *app) familyCmd() *cobra.Command {
	var depth int
	var both bool
	cmd := &cobra.Command{
		Use:   "family WORD",
		Short: "List the words derived from WORD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := derivation.Forward
			if both {
				dir = derivation.Both
			}
			s, err := a.stemmer(cmd.Context(), derivation.WithFamilyDirection(dir))
			if err != nil {
				return err
			}
			defer s.Close()
			for _, w := range s.GetWordFamily(args[0], depth) {
				fmt.Fprintln(cmd.OutOrStdout(), w)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", derivation.DefaultFamilyDepth, "maximum number of derivation steps")
	cmd.Flags().BoolVar(&both, "both", false, "also walk towards parents")
	return cmd
}

func (a *app) derivationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "derivations WORD",
		Short: "List the direct derivational neighbours of WORD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.stemmer(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, d := range s.GetDerivations(args[0]) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Relation, d.Form, d.POS)
			}
			return tw.Flush()
		},
	}
}

func (a *app) relatedCmd() *cobra.Command {
	var inflection bool
	cmd := &cobra.Command{
		Use:   "related WORD1 WORD2",
		Short: "Report whether two words share a root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inflection {
				an, err := a.analyzer(cmd.Context(), false)
				if err != nil {
					return err
				}
				defer an.Close()
				return writeJSON(cmd.OutOrStdout(), an.AreRelated(args[0], args[1], true))
			}
			s, err := a.stemmer(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			rel := analyzer.Relation{}
			if s.AreRelated(args[0], args[1]) {
				rel = analyzer.Relation{Related: true, Type: analyzer.RelationDerivational, CommonRoot: s.Stem(args[0])}
			}
			return writeJSON(cmd.OutOrStdout(), rel)
		},
	}
	cmd.Flags().BoolVar(&inflection, "inflection", false, "also check inflectional relations (needs inflection data)")
	return cmd
}

func (a *app) analyzeCmd() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "analyze WORD...",
		Short: "Print derivational, inflectional and etymological analysis as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := a.analyzer(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer an.Close()
			for _, w := range args {
				if err := writeJSON(cmd.OutOrStdout(), an.Analyze(w, depth)); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", derivation.DefaultFamilyDepth, "word family depth")
	return cmd
}

func (a *app) etymologyCmd() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "etymology WORD",
		Short: "Trace the origin chain of WORD across languages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.linker(cmd.Context(), false)
			if err != nil {
				return err
			}
			chain := l.TraceChain(args[0], crosstem.LanguageName(a.cfg.Language), depth)
			out := cmd.OutOrStdout()
			for i, o := range chain {
				if i == 0 {
					fmt.Fprintf(out, "%s (%s)\n", o.Term, o.Lang)
					continue
				}
				fmt.Fprintf(out, "%*s← %s (%s) [%s]\n", 2*i, "", o.Term, o.Lang, o.RelType)
			}
			if len(chain) == 1 {
				fmt.Fprintln(out, "no recorded origin")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", etymology.DefaultTraceDepth, "maximum number of origin hops")
	return cmd
}

func (a *app) languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and their productivity thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tVERB\tOTHER\tSNOWBALL")
			for _, code := range crosstem.LanguageCodes() {
				lang, _ := crosstem.LookupLanguage(code)
				t := a.cfg.ThresholdsFor(code)
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", code, lang.Name, t.Verb, t.Other, lang.Snowball)
			}
			return tw.Flush()
		},
	}
}

func (a *app) compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare WORD...",
		Short: "Compare derivational roots with snowball suffix stems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := a.analyzer(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer an.Close()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WORD\tDERIVATIONAL\tSNOWBALL")
			for _, c := range an.CompareSuffixStemmer(args) {
				snow := c.Snowball
				if snow == "" {
					snow = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Word, c.Derivational, snow)
			}
			return tw.Flush()
		},
	}
}
