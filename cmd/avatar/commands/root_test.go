package commands

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/haivivi/avatar/cmd/avatar/internal/config"
	"github.com/haivivi/avatar/pkg/audio/codec/wav"
	"github.com/haivivi/avatar/pkg/audio/pcm"
)

// testEnv points the CLI at a scratch directory.
type testEnv struct {
	Dir     string
	Config  string
	DB      string
	Audio   string
	Archive string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		Dir:     dir,
		Config:  filepath.Join(dir, "config.yaml"),
		DB:      filepath.Join(dir, "data", "app.db"),
		Audio:   filepath.Join(dir, "audio"),
		Archive: filepath.Join(dir, "archive"),
	}
	for _, k := range []string{config.EnvSampleRate, config.EnvChannels, config.EnvWorkers} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvDBPath, env.DB)
	t.Setenv(config.EnvAudioDir, env.Audio)
	t.Setenv(config.EnvLogLevel, "error")
	return env
}

// withArchive writes a config file enabling the local archive.
func (e *testEnv) withArchive(t *testing.T) {
	t.Helper()
	content := "archive:\n  kind: local\n  dir: " + e.Archive + "\n"
	if err := os.WriteFile(e.Config, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// run executes the CLI with --config pointing at the env's config file.
func (e *testEnv) run(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	return runCmd(t, append([]string{"--config", e.Config}, args...)...)
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	configFile = ""
	outputFormat = "yaml"
	outputFile = ""
	verbose = false

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var outBuf, errBuf bytes.Buffer
	outBuf.ReadFrom(rOut)
	errBuf.ReadFrom(rErr)

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		if stderr == "" {
			stderr = err.Error()
		}
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// writeTone writes a 440 Hz sine as 16-bit WAV.
func writeTone(t *testing.T, path string, rate, channels int, seconds float64) {
	t.Helper()
	n := int(math.Round(float64(rate) * seconds))
	data := make([]float64, n*channels)
	for i := range n {
		v := 0.3 * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
		for c := range channels {
			data[i*channels+c] = v
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := wav.Encode(f, &pcm.Buffer{SampleRate: rate, Channels: channels, Data: data}); err != nil {
		t.Fatal(err)
	}
}

func decodeJSON(t *testing.T, s string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(s), v); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, s)
	}
}

func TestVersion(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.HasPrefix(stdout, "avatar ") {
		t.Fatalf("expected 'avatar', got: %s", stdout)
	}
}

func TestVersion_VerboseShowsConfig(t *testing.T) {
	env := setupTestEnv(t)
	env.withArchive(t)

	stdout, _, code := env.run(t, "version", "-v")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, env.Config) {
		t.Errorf("expected config path in output, got: %s", stdout)
	}
}

func TestBrokenConfig(t *testing.T) {
	env := setupTestEnv(t)
	if err := os.WriteFile(env.Config, []byte("log:\n  level: loud\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, code := env.run(t, "version"); code != 0 {
		t.Errorf("version should not need a valid config, exit %d", code)
	}
	_, stderr, code := env.run(t, "db", "migrate")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "log.level") {
		t.Errorf("expected config error, got: %s", stderr)
	}
}

func TestUnsupportedOutputFormat(t *testing.T) {
	env := setupTestEnv(t)

	_, stderr, code := env.run(t, "db", "migrate", "-o", "xml")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "unsupported output format") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestDBMigrate(t *testing.T) {
	env := setupTestEnv(t)

	for range 2 {
		stdout, stderr, code := env.run(t, "db", "migrate", "-o", "json")
		if code != 0 {
			t.Fatalf("exit %d: %s", code, stderr)
		}
		var got struct {
			Path    string `json:"path"`
			Version uint   `json:"version"`
			Dirty   bool   `json:"dirty"`
		}
		decodeJSON(t, stdout, &got)
		if got.Path != env.DB || got.Version != 1 || got.Dirty {
			t.Errorf("migrate = %+v", got)
		}
	}
	if _, err := os.Stat(env.DB); err != nil {
		t.Errorf("database not created: %v", err)
	}
	for _, d := range []string{"raw", "profiles", "tts_fast", "tts_hq"} {
		if fi, err := os.Stat(filepath.Join(env.Audio, d)); err != nil || !fi.IsDir() {
			t.Errorf("audio dir %s not created: %v", d, err)
		}
	}
}

func TestOutputFile(t *testing.T) {
	env := setupTestEnv(t)
	out := filepath.Join(env.Dir, "migrate.json")

	stdout, stderr, code := env.run(t, "db", "migrate", "-o", "json", "--output-file", out)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing", stdout)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"version": 1`) {
		t.Errorf("file = %s", data)
	}
}
