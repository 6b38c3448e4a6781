package commands

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/haivivi/avatar/pkg/artifact"
	"github.com/haivivi/avatar/pkg/audio/normalize"
	"github.com/haivivi/avatar/pkg/cli"
	"github.com/haivivi/avatar/pkg/convdb"
)

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Manage voice profiles",
	Long: `Voice profiles are reference samples used for voice cloning.

Names are not unique; 'voice find' returns the oldest profile with a name.`,
}

type profileList []convdb.VoiceProfile

func (l profileList) Headers() []string {
	return []string{"ID", "NAME", "AUDIO", "DURATION", "EMBEDDING", "CREATED"}
}

func (l profileList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, p := range l {
		emb := "no"
		if p.HasEmbedding() {
			emb = cli.FormatBytes(int64(len(p.Embedding)))
		}
		rows[i] = []string{
			fmt.Sprintf("%d", p.ID),
			p.Name,
			p.AudioPath,
			cli.FormatSeconds(p.DurationSec),
			emb,
			cli.FormatUnix(p.CreatedAt),
		}
	}
	return rows
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid profile id %q", s)
	}
	return id, nil
}

// ---------------------------------------------------------------------------
// add
// ---------------------------------------------------------------------------

// profileOutput returns <dir>/<name>.wav, or a suffixed sibling when a
// profile with the same name already owns that file.
func profileOutput(dir, name string) string {
	base := strings.TrimSuffix(path.Base(artifact.ProfileKey(name)), normalize.Extension)
	out := filepath.Join(dir, base+normalize.Extension)
	if _, err := os.Stat(out); err == nil {
		out = filepath.Join(dir, base+"-"+uuid.NewString()[:8]+normalize.Extension)
	}
	return out
}

var (
	voiceEmbedding string
	voiceArchive   bool
)

var voiceAddCmd = &cobra.Command{
	Use:   "add <name> <audio>",
	Short: "Register a voice profile from a reference sample",
	Long: `Normalize the reference sample into the profiles directory
(audio.dirs.profiles), measure its duration and store the profile.

--embedding reads a precomputed speaker embedding from a file.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, input := args[0], args[1]
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		var embedding []byte
		if voiceEmbedding != "" {
			if embedding, err = os.ReadFile(voiceEmbedding); err != nil {
				return fmt.Errorf("read embedding: %w", err)
			}
		}

		var store artifact.Store
		if voiceArchive {
			if store, err = newArchive(cmd.Context(), cfg); err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("--archive needs archive.kind to be configured")
			}
		}

		n, err := newNormalizer(cfg)
		if err != nil {
			return err
		}
		out, report, err := n.ConvertDefault(input, profileOutput(cfg.Audio.Dirs.Profiles, name))
		if err != nil {
			return err
		}
		key := artifact.ProfileKey(strings.TrimSuffix(filepath.Base(out), normalize.Extension))

		ctx := cmd.Context()
		if store != nil {
			if _, err := artifact.Archive(ctx, store, out, key); err != nil {
				return err
			}
			getLogger().Info("audio.archived", "key", key)
		}

		var profile *convdb.VoiceProfile
		err = withStore(ctx, func(s *convdb.Store) error {
			existing, err := s.VoiceProfileByName(ctx, name)
			if err != nil {
				return err
			}
			if existing != nil {
				cli.PrintWarning(os.Stderr, "voice profile %q already exists (id %d); adding another", name, existing.ID)
			}
			id, err := s.CreateVoiceProfile(ctx, name, out, report.ConvertedDuration, embedding)
			if err != nil {
				return err
			}
			profile, err = s.VoiceProfile(ctx, id)
			return err
		})
		if err != nil {
			return err
		}
		return printResult(profileList{*profile})
	},
}

// ---------------------------------------------------------------------------
// get / find / list / delete
// ---------------------------------------------------------------------------

var voiceGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a voice profile by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		var p *convdb.VoiceProfile
		err = withStore(ctx, func(s *convdb.Store) error {
			p, err = s.VoiceProfile(ctx, id)
			return err
		})
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("voice profile %d not found", id)
		}
		return printResult(profileList{*p})
	},
}

var voiceFindCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Show the oldest voice profile with a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var p *convdb.VoiceProfile
		err := withStore(ctx, func(s *convdb.Store) error {
			var err error
			p, err = s.VoiceProfileByName(ctx, args[0])
			return err
		})
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("voice profile %q not found", args[0])
		}
		return printResult(profileList{*p})
	},
}

var voiceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List voice profiles, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var profiles []convdb.VoiceProfile
		err := withStore(ctx, func(s *convdb.Store) error {
			var err error
			profiles, err = s.ListVoiceProfiles(ctx)
			return err
		})
		if err != nil {
			return err
		}
		return printResult(profileList(profiles))
	},
}

var voiceDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a voice profile",
	Long: `Delete a voice profile. Turns that reference it keep the id.
The reference audio file is left in place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		var deleted bool
		err = withStore(ctx, func(s *convdb.Store) error {
			deleted, err = s.DeleteVoiceProfile(ctx, id)
			return err
		})
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("voice profile %d not found", id)
		}
		cli.PrintSuccess(os.Stdout, "Deleted voice profile %d", id)
		return nil
	},
}

func init() {
	voiceAddCmd.Flags().StringVar(&voiceEmbedding, "embedding", "", "file holding a precomputed speaker embedding")
	voiceAddCmd.Flags().BoolVar(&voiceArchive, "archive", false, "copy the reference sample to the configured archive")

	voiceCmd.AddCommand(voiceAddCmd)
	voiceCmd.AddCommand(voiceGetCmd)
	voiceCmd.AddCommand(voiceFindCmd)
	voiceCmd.AddCommand(voiceListCmd)
	voiceCmd.AddCommand(voiceDeleteCmd)
	rootCmd.AddCommand(voiceCmd)
}
