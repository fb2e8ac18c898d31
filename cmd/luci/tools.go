package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/keshon/luci/internal/backend"
	"github.com/keshon/luci/internal/mind"
	"github.com/keshon/luci/internal/sentiment"
)

type deltaReport struct {
	Text          string     `json:"text,omitempty"`
	Sentiment     float64    `json:"sentiment"`
	Offensive     bool       `json:"offensive"`
	Delta         mind.Delta `json:"delta"`
	AffinityDelta float64    `json:"affinity_delta"`
}

func newDeltaCmd() *cobra.Command {
	var (
		score     float64
		offensive bool
		words     []string
	)
	cmd := &cobra.Command{
		Use:   "delta [text...]",
		Short: "Show the mood change a message would cause",
		Long: "With text, sentiment and offense come from the built-in lexicon. " +
			"Without it, --sentiment and --offensive are used as given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := deltaReport{Sentiment: score, Offensive: offensive}
			if len(args) > 0 {
				lex := sentiment.New(words...)
				r.Text = strings.Join(args, " ")
				r.Sentiment = lex.Sentiment(r.Text)
				r.Offensive = lex.IsOffensive(r.Text)
			}
			c := mind.DefaultHumorCoefficients
			r.Delta = c.ComputeDelta(r.Sentiment, r.Offensive)
			r.AffinityDelta = c.AffinityDelta(r.Sentiment, r.Offensive)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		},
	}
	cmd.Flags().Float64Var(&score, "sentiment", 0, "sentiment score in [-1, 1]")
	cmd.Flags().BoolVar(&offensive, "offensive", false, "treat the message as offensive")
	cmd.Flags().StringSliceVar(&words, "offensive-word", nil, "extra offensive word for the lexicon")
	return cmd
}

func newBandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bands [value]",
		Short: "Print the hourglass labels, or classify one value on every axis",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			if len(args) == 1 {
				v, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("value: %w", err)
				}
				fmt.Fprintln(w, "AXIS\tSTATUS")
				for _, a := range mind.Axes {
					fmt.Fprintf(w, "%s\t%s\n", a, mind.Classify(a, v))
				}
				return nil
			}

			fmt.Fprintln(w, "AXIS\tFROM\tSTATUS")
			for _, a := range mind.Axes {
				for _, b := range mind.Hourglass[a] {
					fmt.Fprintf(w, "%s\t%+.2f\t%s\n", a, b.Min, b.Label)
				}
			}
			return nil
		},
	}
}

func newGuildConfigCmd() *cobra.Command {
	var (
		cfg     mind.GuildConfig
		backURL string
	)
	cmd := &cobra.Command{
		Use:   "guild-config <guild-id>",
		Short: "Write a guild's settings to a SQL backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if backURL == "" {
				c, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				backURL = c.BackendURL
			}
			if backURL == "" {
				return errors.New("no backend: set BACKEND_URL or --backend")
			}
			b, err := backend.Open(cmd.Context(), backURL, backend.Options{Logger: zerolog.Nop()})
			if err != nil {
				return err
			}
			defer b.Close()

			w, ok := b.(backend.ConfigWriter)
			if !ok {
				return fmt.Errorf("backend %q does not store guild settings locally", backURL)
			}
			if err := w.SetGuildConfig(cmd.Context(), args[0], cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved settings for guild %s\n", args[0])
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&backURL, "backend", "", "backend url (defaults to BACKEND_URL)")
	f.StringVar(&cfg.ServerName, "name", "", "server name")
	f.StringVar(&cfg.MainChannel, "main-channel", "", "channel id for greetings and idle messages")
	f.BoolVar(&cfg.AllowAutoSendMessages, "auto-send", false, "allow idle messages")
	f.BoolVar(&cfg.AllowLearningFromChat, "learn", false, "learn replies from chat")
	f.BoolVar(&cfg.FilterOffensiveMessages, "filter-offensive", false, "never learn offensive messages")
	return cmd
}
