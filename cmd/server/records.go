package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkeye/voicewatch/internal/domain"
	"github.com/dkeye/voicewatch/internal/store"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect or reset longest-session records",
}

var recordsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every record",
	Args:  cobra.NoArgs,
	RunE:  runRecordsShow,
}

var recordsResetCmd = &cobra.Command{
	Use:       "reset <today|week|month|all_time>",
	Short:     "Clear one record; sessions are kept",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"today", "week", "month", "all_time"},
	RunE:      runRecordsReset,
}

func init() {
	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(recordsResetCmd)
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.DatabasePath)
}

func runRecordsShow(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	recs, err := st.Records(cmd.Context())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCOPE\tMEMBER\tDURATION\tDATE")
	for _, r := range recs {
		member, date := "-", "-"
		if r.Holder != nil {
			member = *r.Holder
		}
		if r.Date != nil {
			date = r.Date.Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Scope, member, r.Duration.Round(time.Second), date)
	}
	return w.Flush()
}

func runRecordsReset(cmd *cobra.Command, args []string) error {
	scope, err := domain.ParseScope(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s", err, args[0])
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.ResetRecord(cmd.Context(), scope); err != nil {
		return err
	}
	fmt.Printf("record %s reset\n", scope)
	return nil
}
