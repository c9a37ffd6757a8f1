package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olivierh59500/particle-flow/internal/theme"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	opts := defaultOptions()

	rootCmd := &cobra.Command{
		Use:           "particle-flow",
		Short:         "Particles pushed around by your hand",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindow(cmd.Context(), opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.ThemePath, "theme", "t", "", "theme file to start with")
	flags.Int64Var(&opts.Seed, "seed", 0, "random seed (0 picks one from the clock)")
	flags.IntVar(&opts.Width, "width", opts.Width, "window width")
	flags.IntVar(&opts.Height, "height", opts.Height, "window height")
	flags.BoolVar(&opts.Autopilot, "autopilot", false, "drive the pointer with a wandering virtual hand")
	flags.StringVar(&opts.Endpoint, "endpoint", "", "theme generation service URL")
	flags.StringVar(&opts.Describe, "describe", "", "describe a theme to generate at startup")
	flags.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "theme generation timeout")
	flags.Float64Var(&opts.Smoothing, "smoothing", opts.Smoothing, "pointer spring frequency, 0 disables smoothing")

	rootCmd.AddCommand(newRunCmd(opts), newTUICmd(opts), newThemeCmd(opts))
	return rootCmd
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "open the simulation window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindow(cmd.Context(), opts)
		},
	}
}

func newTUICmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "run the simulation in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The screen owns the terminal; logs go to a file or nowhere
			var out io.Writer = io.Discard
			if opts.LogPath != "" {
				f, err := os.OpenFile(opts.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			log.SetOutput(out)
			defer log.SetOutput(os.Stderr)
			return runTUI(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.LogPath, "log", "", "append logs to this file while the terminal UI runs")
	return cmd
}

func newThemeCmd(opts *options) *cobra.Command {
	themeCmd := &cobra.Command{
		Use:   "theme",
		Short: "create and inspect theme files",
	}

	var out string
	generateCmd := &cobra.Command{
		Use:   "generate [description...]",
		Short: "ask the theme service for a theme",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var gen theme.Generator
			if opts.Endpoint != "" {
				gen = theme.NewClient(opts.Endpoint, opts.Timeout)
			}
			t, err := theme.Resolve(cmd.Context(), gen, strings.Join(args, " "))
			if err != nil {
				log.Printf("theme service failed, writing default theme: %v", err)
			}
			return writeTheme(cmd.OutOrStdout(), out, t)
		},
	}
	generateCmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")

	defaultCmd := &cobra.Command{
		Use:   "default",
		Short: "print the default theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeTheme(cmd.OutOrStdout(), "", theme.DefaultTheme())
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check FILE",
		Short: "validate a theme file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := theme.Load(args[0])
			if err != nil {
				return err
			}
			c := t.Config
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d particles, %s, %d colors, radius %g, force %g\n",
				t.Name, c.ParticleCount, c.InteractionMode, len(c.Colors), c.InteractionRadius, c.InteractionForce)
			return nil
		},
	}

	themeCmd.AddCommand(generateCmd, defaultCmd, checkCmd)
	return themeCmd
}

// writeTheme saves t to path, or prints it when path is empty
func writeTheme(w io.Writer, path string, t theme.Theme) error {
	if path != "" {
		return theme.Save(path, t)
	}
	data, err := theme.Encode(t)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
