package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haivivi/avatar/pkg/audio/normalize"
	"github.com/haivivi/avatar/pkg/convdb"
)

func TestTurnSaveAndHistory(t *testing.T) {
	env := setupTestEnv(t)

	_, stderr, code := env.run(t, "turn", "save", "--session", "s1",
		"--user-audio", "audio/raw/s1-1.wav", "--user-text", "hello", "--ai-text", "hi there")
	if code != 0 {
		t.Fatalf("first save: exit %d: %s", code, stderr)
	}
	stdout, stderr, code := env.run(t, "turn", "save", "--session", "s1",
		"--user-audio", "audio/raw/s1-2.wav", "--ai-text", "bye", "--fast", "audio/tts_fast/s1-2.wav",
		"--voice-profile", "7", "-o", "json")
	if code != 0 {
		t.Fatalf("second save: exit %d: %s", code, stderr)
	}
	var saved []convdb.Turn
	decodeJSON(t, stdout, &saved)
	if len(saved) != 1 || saved[0].TurnNumber != 2 {
		t.Fatalf("saved = %+v, want turn 2", saved)
	}
	if saved[0].AIAudioFastPath == nil || *saved[0].AIAudioFastPath != "audio/tts_fast/s1-2.wav" {
		t.Errorf("fast path = %v", saved[0].AIAudioFastPath)
	}
	if saved[0].AIAudioHQPath != nil {
		t.Errorf("hq path = %v, want nil", *saved[0].AIAudioHQPath)
	}
	if saved[0].VoiceProfileID == nil || *saved[0].VoiceProfileID != 7 {
		t.Errorf("voice profile = %v", saved[0].VoiceProfileID)
	}

	stdout, stderr, code = env.run(t, "turn", "history", "s1", "-o", "json")
	if code != 0 {
		t.Fatalf("history: exit %d: %s", code, stderr)
	}
	var turns []convdb.Turn
	decodeJSON(t, stdout, &turns)
	if len(turns) != 2 || turns[0].TurnNumber != 2 || turns[1].UserText != "hello" {
		t.Errorf("history = %+v", turns)
	}

	stdout, _, _ = env.run(t, "turn", "history", "s1", "--limit", "1", "-o", "json")
	turns = nil
	decodeJSON(t, stdout, &turns)
	if len(turns) != 1 {
		t.Errorf("limited history = %d turns, want 1", len(turns))
	}

	stdout, _, code = env.run(t, "turn", "next", "s1", "-o", "json")
	if code != 0 {
		t.Fatalf("next: exit %d", code)
	}
	var next nextTurn
	decodeJSON(t, stdout, &next)
	if next.NextTurn != 3 || next.TurnCount != 2 {
		t.Errorf("next = %+v", next)
	}
}

func TestTurnSave_FromFile(t *testing.T) {
	env := setupTestEnv(t)
	req := filepath.Join(env.Dir, "turn.yaml")
	content := `session_id: from-file
turn_number: 5
user_audio_path: audio/raw/ff-5.wav
user_text: "what time is it?"
ai_text: "noon"
ai_audio_hq_path: audio/tts_hq/ff-5.wav
`
	if err := os.WriteFile(req, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := env.run(t, "turn", "save", "-f", req, "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var saved []convdb.Turn
	decodeJSON(t, stdout, &saved)
	got := saved[0]
	if got.SessionID != "from-file" || got.TurnNumber != 5 || got.UserText != "what time is it?" {
		t.Errorf("saved = %+v", got)
	}
	if got.AIAudioHQPath == nil || *got.AIAudioHQPath != "audio/tts_hq/ff-5.wav" {
		t.Errorf("hq path = %v", got.AIAudioHQPath)
	}
}

func TestTurnSave_RequiresSession(t *testing.T) {
	env := setupTestEnv(t)
	_, stderr, code := env.run(t, "turn", "save", "--ai-text", "orphan")
	if code != 1 || !strings.Contains(stderr, "session id is required") {
		t.Errorf("exit %d, stderr %s", code, stderr)
	}
}

func TestTurnSave_Archive(t *testing.T) {
	env := setupTestEnv(t)
	env.withArchive(t)
	user := filepath.Join(env.Dir, "user.wav")
	writeTone(t, user, 16000, 1, 0.1)

	_, stderr, code := env.run(t, "turn", "save", "--session", "arch", "--turn", "1",
		"--user-audio", user, "--hq", filepath.Join(env.Dir, "not-rendered.wav"), "--archive")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !normalize.Validate(filepath.Join(env.Archive, "sessions", "arch", "1-user.wav")) {
		t.Error("user audio not archived")
	}
	if _, err := os.Stat(filepath.Join(env.Archive, "sessions", "arch", "1-hq.wav")); !os.IsNotExist(err) {
		t.Errorf("missing hq file should be skipped: %v", err)
	}
}

func TestSessionList(t *testing.T) {
	env := setupTestEnv(t)
	for _, s := range []string{"alpha", "beta", "alpha"} {
		if _, stderr, code := env.run(t, "turn", "save", "--session", s); code != 0 {
			t.Fatalf("save %s: exit %d: %s", s, code, stderr)
		}
	}

	stdout, stderr, code := env.run(t, "session", "list", "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var sessions []convdb.Session
	decodeJSON(t, stdout, &sessions)
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	counts := map[string]int{}
	for _, s := range sessions {
		counts[s.SessionID] = s.TurnCount
	}
	if counts["alpha"] != 2 || counts["beta"] != 1 {
		t.Errorf("turn counts = %v", counts)
	}

	stdout, _, code = env.run(t, "session", "list", "-o", "table")
	if code != 0 || !strings.Contains(stdout, "alpha") || !strings.Contains(stdout, "SESSION") {
		t.Errorf("table output = %s", stdout)
	}
}

func TestSessionList_Empty(t *testing.T) {
	env := setupTestEnv(t)
	stdout, stderr, code := env.run(t, "session", "list", "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if strings.TrimSpace(stdout) != "[]" {
		t.Errorf("stdout = %q, want []", stdout)
	}
	if _, err := os.Stat(filepath.Join(env.Audio, "tts_hq")); err != nil {
		t.Errorf("audio dirs not created on first store use: %v", err)
	}
}
