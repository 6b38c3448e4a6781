package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/avatar/pkg/cli"
	"github.com/haivivi/avatar/pkg/convdb"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect conversation sessions",
}

type sessionList []convdb.Session

func (l sessionList) Headers() []string {
	return []string{"SESSION", "TURNS", "STARTED", "LAST UPDATED"}
}

func (l sessionList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, s := range l {
		rows[i] = []string{
			s.SessionID,
			fmt.Sprintf("%d", s.TurnCount),
			cli.FormatUnix(s.StartedAt),
			cli.FormatUnix(s.LastUpdated),
		}
	}
	return rows
}

var sessionsLimit int

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recently active sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var sessions []convdb.Session
		err := withStore(ctx, func(s *convdb.Store) error {
			var err error
			sessions, err = s.RecentSessions(ctx, sessionsLimit)
			return err
		})
		if err != nil {
			return err
		}
		return printResult(sessionList(sessions))
	},
}

func init() {
	sessionListCmd.Flags().IntVar(&sessionsLimit, "limit", convdb.DefaultSessionsLimit, "maximum number of sessions")

	sessionCmd.AddCommand(sessionListCmd)
	rootCmd.AddCommand(sessionCmd)
}
