package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/avatar/pkg/artifact"
	"github.com/haivivi/avatar/pkg/cli"
	"github.com/haivivi/avatar/pkg/convdb"
)

var turnCmd = &cobra.Command{
	Use:   "turn",
	Short: "Record and read conversation turns",
}

// ---------------------------------------------------------------------------
// save
// ---------------------------------------------------------------------------

// turnRequest is the file form of 'turn save -f'.
type turnRequest struct {
	SessionID       string  `json:"session_id" yaml:"session_id"`
	TurnNumber      int     `json:"turn_number" yaml:"turn_number"`
	UserAudioPath   string  `json:"user_audio_path" yaml:"user_audio_path"`
	UserText        string  `json:"user_text" yaml:"user_text"`
	AIText          string  `json:"ai_text" yaml:"ai_text"`
	AIAudioFastPath *string `json:"ai_audio_fast_path" yaml:"ai_audio_fast_path"`
	AIAudioHQPath   *string `json:"ai_audio_hq_path" yaml:"ai_audio_hq_path"`
	VoiceProfileID  *int64  `json:"voice_profile_id" yaml:"voice_profile_id"`
}

func (r turnRequest) input() convdb.TurnInput {
	return convdb.TurnInput{
		SessionID:       r.SessionID,
		TurnNumber:      r.TurnNumber,
		UserAudioPath:   r.UserAudioPath,
		UserText:        r.UserText,
		AIText:          r.AIText,
		AIAudioFastPath: r.AIAudioFastPath,
		AIAudioHQPath:   r.AIAudioHQPath,
		VoiceProfileID:  r.VoiceProfileID,
	}
}

var (
	turnFile      string
	turnSession   string
	turnNumber    int
	turnUserAudio string
	turnUserText  string
	turnAIText    string
	turnFast      string
	turnHQ        string
	turnVoice     int64
	turnArchive   bool
)

var turnSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Record a conversation turn",
	Long: `Record one exchange of a session.

Fields come either from flags or from a YAML/JSON request file (-f, "-"
for stdin). Without --turn the next free turn number is used. With
--archive the referenced audio files are also copied to the configured
archive.`,
	Example: `  avatar turn save --session s1 --user-audio audio/raw/s1-1.wav \
      --user-text "hello" --ai-text "hi there" --fast audio/tts_fast/s1-1.wav
  avatar turn save -f turn.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req turnRequest
		if turnFile != "" {
			if err := cli.LoadRequest(turnFile, &req); err != nil {
				return err
			}
		} else {
			req = turnRequest{
				SessionID:     turnSession,
				TurnNumber:    turnNumber,
				UserAudioPath: turnUserAudio,
				UserText:      turnUserText,
				AIText:        turnAIText,
			}
			flags := cmd.Flags()
			if flags.Changed("fast") {
				req.AIAudioFastPath = &turnFast
			}
			if flags.Changed("hq") {
				req.AIAudioHQPath = &turnHQ
			}
			if flags.Changed("voice-profile") {
				req.VoiceProfileID = &turnVoice
			}
		}
		if req.SessionID == "" {
			return errors.New("session id is required (--session or session_id)")
		}

		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		var store artifact.Store
		if turnArchive {
			if store, err = newArchive(cmd.Context(), cfg); err != nil {
				return err
			}
			if store == nil {
				return errors.New("--archive needs archive.kind to be configured")
			}
		}

		ctx := cmd.Context()
		var saved *convdb.Turn
		err = withStore(ctx, func(s *convdb.Store) error {
			if req.TurnNumber <= 0 {
				n, err := s.NextTurnNumber(ctx, req.SessionID)
				if err != nil {
					return err
				}
				req.TurnNumber = n
			}
			id, err := s.SaveTurn(ctx, req.input())
			if err != nil {
				return err
			}
			saved, err = s.Turn(ctx, id)
			return err
		})
		if err != nil {
			return err
		}
		if store != nil {
			if err := archiveTurn(ctx, store, saved); err != nil {
				return err
			}
		}
		return printResult(turnList{*saved})
	},
}

// archiveTurn copies every audio file the turn references that exists on
// disk.
func archiveTurn(ctx context.Context, store artifact.Store, t *convdb.Turn) error {
	files := []struct {
		kind string
		path string
	}{
		{artifact.KindUser, t.UserAudioPath},
		{artifact.KindFast, deref(t.AIAudioFastPath)},
		{artifact.KindHQ, deref(t.AIAudioHQPath)},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); err != nil {
			getLogger().Warn("audio.archive.skipped", "path", f.path, "error", err)
			continue
		}
		key := artifact.Key(t.SessionID, t.TurnNumber, f.kind)
		if _, err := artifact.Archive(ctx, store, f.path, key); err != nil {
			return err
		}
		getLogger().Info("audio.archived", "key", key)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ---------------------------------------------------------------------------
// history / next
// ---------------------------------------------------------------------------

type turnList []convdb.Turn

func (l turnList) Headers() []string {
	return []string{"ID", "SESSION", "TURN", "USER", "AI", "VOICE", "CREATED"}
}

func (l turnList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, t := range l {
		rows[i] = []string{
			fmt.Sprintf("%d", t.ID),
			t.SessionID,
			fmt.Sprintf("%d", t.TurnNumber),
			t.UserText,
			t.AIText,
			cli.Optional(t.VoiceProfileID),
			cli.FormatUnix(t.CreatedAt),
		}
	}
	return rows
}

var historyLimit int

var turnHistoryCmd = &cobra.Command{
	Use:   "history <session>",
	Short: "Show the most recent turns of a session, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var turns []convdb.Turn
		err := withStore(ctx, func(s *convdb.Store) error {
			var err error
			turns, err = s.History(ctx, args[0], historyLimit)
			return err
		})
		if err != nil {
			return err
		}
		return printResult(turnList(turns))
	},
}

type nextTurn struct {
	SessionID string `json:"session_id" yaml:"session_id"`
	TurnCount int    `json:"turn_count" yaml:"turn_count"`
	NextTurn  int    `json:"next_turn" yaml:"next_turn"`
}

func (n nextTurn) Headers() []string { return []string{"SESSION", "TURNS", "NEXT"} }

func (n nextTurn) Rows() [][]string {
	return [][]string{{n.SessionID, fmt.Sprintf("%d", n.TurnCount), fmt.Sprintf("%d", n.NextTurn)}}
}

var turnNextCmd = &cobra.Command{
	Use:   "next <session>",
	Short: "Print the next turn number of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var next, count int
		err := withStore(ctx, func(s *convdb.Store) error {
			var err error
			if count, err = s.SessionTurnCount(ctx, args[0]); err != nil {
				return err
			}
			next, err = s.NextTurnNumber(ctx, args[0])
			return err
		})
		if err != nil {
			return err
		}
		return printResult(nextTurn{SessionID: args[0], TurnCount: count, NextTurn: next})
	},
}

func init() {
	f := turnSaveCmd.Flags()
	f.StringVarP(&turnFile, "file", "f", "", "request file (YAML or JSON, - for stdin)")
	f.StringVar(&turnSession, "session", "", "session id")
	f.IntVar(&turnNumber, "turn", 0, "turn number (default: next free number)")
	f.StringVar(&turnUserAudio, "user-audio", "", "path of the user's normalized audio")
	f.StringVar(&turnUserText, "user-text", "", "transcribed user text")
	f.StringVar(&turnAIText, "ai-text", "", "assistant reply text")
	f.StringVar(&turnFast, "fast", "", "path of the fast TTS rendition")
	f.StringVar(&turnHQ, "hq", "", "path of the high-quality TTS rendition")
	f.Int64Var(&turnVoice, "voice-profile", 0, "voice profile id used for synthesis")
	f.BoolVar(&turnArchive, "archive", false, "copy referenced audio files to the configured archive")

	turnHistoryCmd.Flags().IntVar(&historyLimit, "limit", convdb.DefaultHistoryLimit, "maximum number of turns")

	turnCmd.AddCommand(turnSaveCmd)
	turnCmd.AddCommand(turnHistoryCmd)
	turnCmd.AddCommand(turnNextCmd)
	rootCmd.AddCommand(turnCmd)
}
