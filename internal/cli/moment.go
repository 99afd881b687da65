package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ishaan-bit/reverie/internal/config"
	"github.com/ishaan-bit/reverie/internal/recap"
)

var momentCmd = &cobra.Command{
	Use:   "moment",
	Short: "Record and inspect moments",
}

var (
	momentMood    string
	momentValence float64
	momentArousal float64
	momentDays    int
)

var momentAddCmd = &cobra.Command{
	Use:   "add <user-id> <text...>",
	Short: "Record a moment",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMomentAdd,
}

var momentListCmd = &cobra.Command{
	Use:   "list <user-id>",
	Short: "List a user's recent moments",
	Args:  cobra.ExactArgs(1),
	RunE:  runMomentList,
}

func init() {
	momentAddCmd.Flags().StringVar(&momentMood, "mood", "", "mood: joy, calm, sadness, anger, fear or surprise")
	momentAddCmd.Flags().Float64Var(&momentValence, "valence", 0, "valence signal in [0,1]")
	momentAddCmd.Flags().Float64Var(&momentArousal, "arousal", 0, "arousal signal in [0,1]")
	momentAddCmd.MarkFlagRequired("mood")

	momentListCmd.Flags().IntVar(&momentDays, "days", 30, "how many days back to list")

	momentCmd.AddCommand(momentAddCmd)
	momentCmd.AddCommand(momentListCmd)
}

func runMomentAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	mood, err := recap.ParseMood(momentMood)
	if err != nil {
		return err
	}

	m := &recap.Moment{
		UserID: args[0],
		Text:   strings.Join(args[1:], " "),
		Mood:   mood,
	}
	if cmd.Flags().Changed("valence") {
		v := momentValence
		m.Valence = &v
	}
	if cmd.Flags().Changed("arousal") {
		a := momentArousal
		m.Arousal = &a
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateMoment(context.Background(), m); err != nil {
		return fmt.Errorf("record moment: %w", err)
	}

	fmt.Printf("recorded %s (%s)\n", m.ID, m.Mood)
	return nil
}

func runMomentList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	since := time.Now().AddDate(0, 0, -momentDays)
	moments, err := db.ListMomentsSince(context.Background(), args[0], since)
	if err != nil {
		return fmt.Errorf("list moments: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(moments)
}
