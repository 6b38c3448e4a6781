package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haivivi/avatar/pkg/audio/normalize"
)

func TestAudioConvert(t *testing.T) {
	env := setupTestEnv(t)
	in := filepath.Join(env.Dir, "stereo.wav")
	out := filepath.Join(env.Dir, "out", "mono.wav")
	writeTone(t, in, 44100, 2, 1)

	stdout, stderr, code := env.run(t, "audio", "convert", in, out, "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var got convertResult
	decodeJSON(t, stdout, &got)
	if got.Output != out {
		t.Errorf("output = %q, want %q", got.Output, out)
	}
	if got.Report.ConvertedSampleRate != 16000 || got.Report.ConvertedChannels != 1 {
		t.Errorf("report = %+v", got.Report)
	}
	if got.Report.ConvertedFrames != 16000 {
		t.Errorf("ConvertedFrames = %d, want 16000", got.Report.ConvertedFrames)
	}
	if !normalize.Validate(out) {
		t.Error("output does not validate")
	}
}

func TestAudioConvert_RateFlag(t *testing.T) {
	env := setupTestEnv(t)
	in := filepath.Join(env.Dir, "in.wav")
	out := filepath.Join(env.Dir, "out.wav")
	writeTone(t, in, 16000, 1, 0.5)

	stdout, stderr, code := env.run(t, "audio", "convert", in, out, "--rate", "24000", "--channels", "2", "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var got convertResult
	decodeJSON(t, stdout, &got)
	if got.Report.ConvertedSampleRate != 24000 || got.Report.ConvertedChannels != 2 {
		t.Errorf("report = %+v", got.Report)
	}
	if normalize.Validate(out) {
		t.Error("24 kHz stereo output should not validate as canonical")
	}
}

func TestAudioConvert_Missing(t *testing.T) {
	env := setupTestEnv(t)
	out := filepath.Join(env.Dir, "out.wav")

	_, stderr, code := env.run(t, "audio", "convert", filepath.Join(env.Dir, "nope.wav"), out)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "nope.wav") {
		t.Errorf("stderr = %s", stderr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output should not exist: %v", err)
	}
}

func TestAudioConvert_Archive(t *testing.T) {
	env := setupTestEnv(t)
	env.withArchive(t)
	in := filepath.Join(env.Dir, "in.wav")
	writeTone(t, in, 22050, 1, 0.25)

	stdout, stderr, code := env.run(t, "audio", "convert", in, filepath.Join(env.Dir, "out.wav"),
		"--archive-key", "sessions/s1/1-user.wav", "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var got convertResult
	decodeJSON(t, stdout, &got)
	if got.Archived != "sessions/s1/1-user.wav" {
		t.Errorf("archived = %q", got.Archived)
	}
	archived := filepath.Join(env.Archive, "sessions", "s1", "1-user.wav")
	if !normalize.Validate(archived) {
		t.Errorf("archived copy %s does not validate", archived)
	}
}

func TestAudioConvert_ArchiveNotConfigured(t *testing.T) {
	env := setupTestEnv(t)
	in := filepath.Join(env.Dir, "in.wav")
	writeTone(t, in, 16000, 1, 0.1)

	_, stderr, code := env.run(t, "audio", "convert", in, filepath.Join(env.Dir, "out.wav"), "--archive-key", "k.wav")
	if code != 1 || !strings.Contains(stderr, "archive.kind") {
		t.Errorf("exit %d, stderr %s", code, stderr)
	}
}

func TestAudioConvertBatch(t *testing.T) {
	env := setupTestEnv(t)
	a := filepath.Join(env.Dir, "a.wav")
	b := filepath.Join(env.Dir, "b.wav")
	writeTone(t, a, 48000, 2, 0.2)
	writeTone(t, b, 8000, 1, 0.2)
	outDir := filepath.Join(env.Dir, "batch")

	stdout, stderr, code := env.run(t, "audio", "convert-batch", outDir, a, b, "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var got []batchItem
	decodeJSON(t, stdout, &got)
	if len(got) != 2 {
		t.Fatalf("got %d results", len(got))
	}
	for _, name := range []string{"a.wav", "b.wav"} {
		if !normalize.Validate(filepath.Join(outDir, name)) {
			t.Errorf("%s does not validate", name)
		}
	}
}

func TestAudioConvertBatch_PartialFailure(t *testing.T) {
	env := setupTestEnv(t)
	a := filepath.Join(env.Dir, "a.wav")
	writeTone(t, a, 16000, 1, 0.1)
	outDir := filepath.Join(env.Dir, "batch")

	stdout, stderr, code := env.run(t, "audio", "convert-batch", outDir, a, filepath.Join(env.Dir, "missing.mp3"), "-o", "json")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "1 of 2 conversions failed") {
		t.Errorf("stderr = %s", stderr)
	}
	var got []batchItem
	decodeJSON(t, stdout, &got)
	if got[0].Error != "" || got[1].Error == "" {
		t.Errorf("results = %+v", got)
	}
	if !normalize.Validate(filepath.Join(outDir, "a.wav")) {
		t.Error("successful conversion missing")
	}
}

func TestBatchOutput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/x/rec.mp3", filepath.Join("out", "rec.wav")},
		{"rec.WAV", filepath.Join("out", "rec.wav")},
		{"noext", filepath.Join("out", "noext.wav")},
	}
	for _, tt := range tests {
		if got := batchOutput("out", tt.in); got != tt.want {
			t.Errorf("batchOutput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAudioValidate(t *testing.T) {
	env := setupTestEnv(t)
	good := filepath.Join(env.Dir, "good.wav")
	bad := filepath.Join(env.Dir, "bad.wav")
	writeTone(t, good, 16000, 1, 0.1)
	writeTone(t, bad, 44100, 1, 0.1)

	if _, stderr, code := env.run(t, "audio", "validate", good); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}

	stdout, stderr, code := env.run(t, "audio", "validate", good, bad, "-o", "table")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr, "1 of 2 files") {
		t.Errorf("stderr = %s", stderr)
	}
	if !strings.Contains(stdout, "good.wav") || !strings.Contains(stdout, "✗") {
		t.Errorf("table = %s", stdout)
	}
}

func TestAudioInfo(t *testing.T) {
	env := setupTestEnv(t)
	in := filepath.Join(env.Dir, "in.wav")
	writeTone(t, in, 22050, 2, 0.5)

	stdout, stderr, code := env.run(t, "audio", "info", in, "-o", "json")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	var got normalize.Info
	decodeJSON(t, stdout, &got)
	if got.SampleRate != 22050 || got.Channels != 2 || got.Container != normalize.ContainerWAV {
		t.Errorf("info = %+v", got)
	}

	stdout, _, code = env.run(t, "audio", "info", in, "-o", "table")
	if code != 0 || !strings.Contains(stdout, "22050") {
		t.Errorf("table output = %s", stdout)
	}
}
