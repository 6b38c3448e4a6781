package convdb

import (
	"bytes"
	"context"
	"testing"
)

func TestVoiceProfile_CreateFindDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateVoiceProfile(ctx, "Alice", "audio/profiles/alice.wav", 12.5, nil)
	if err != nil {
		t.Fatalf("CreateVoiceProfile() error: %v", err)
	}

	p, err := s.VoiceProfileByName(ctx, "Alice")
	if err != nil {
		t.Fatalf("VoiceProfileByName() error: %v", err)
	}
	if p == nil {
		t.Fatal("VoiceProfileByName() = nil")
	}
	if p.ID != id || p.Name != "Alice" || p.AudioPath != "audio/profiles/alice.wav" || p.DurationSec != 12.5 {
		t.Errorf("profile = %+v", p)
	}
	if p.Embedding != nil || p.HasEmbedding() {
		t.Errorf("Embedding = %v, want nil", p.Embedding)
	}

	deleted, err := s.DeleteVoiceProfile(ctx, id)
	if err != nil || !deleted {
		t.Fatalf("first DeleteVoiceProfile() = %v, %v; want true", deleted, err)
	}
	deleted, err = s.DeleteVoiceProfile(ctx, id)
	if err != nil || deleted {
		t.Fatalf("second DeleteVoiceProfile() = %v, %v; want false", deleted, err)
	}

	p, err = s.VoiceProfile(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if p != nil {
		t.Errorf("VoiceProfile() after delete = %+v, want nil", p)
	}
}

func TestVoiceProfile_Embedding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	emb := []byte{0x00, 0x01, 0xfe, 0xff, 0x80}

	id, err := s.CreateVoiceProfile(ctx, "Bob", "bob.wav", 3, emb)
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.VoiceProfile(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p.Embedding, emb) {
		t.Errorf("Embedding = %x, want %x", p.Embedding, emb)
	}
	if !p.HasEmbedding() {
		t.Error("HasEmbedding() = false")
	}
}

func TestVoiceProfile_Absent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.VoiceProfile(ctx, 1)
	if err != nil || p != nil {
		t.Errorf("VoiceProfile(absent) = %v, %v; want nil, nil", p, err)
	}
	p, err = s.VoiceProfileByName(ctx, "nobody")
	if err != nil || p != nil {
		t.Errorf("VoiceProfileByName(absent) = %v, %v; want nil, nil", p, err)
	}
}

func TestVoiceProfile_DuplicateNamesOldestWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateVoiceProfile(ctx, "Carol", "c1.wav", 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateVoiceProfile(ctx, "Carol", "c2.wav", 2, nil); err != nil {
		t.Fatalf("duplicate name should be accepted: %v", err)
	}

	p, err := s.VoiceProfileByName(ctx, "Carol")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != first {
		t.Errorf("VoiceProfileByName() id = %d, want %d", p.ID, first)
	}
}

func TestListVoiceProfiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"one", "two", "three"} {
		if _, err := s.CreateVoiceProfile(ctx, name, name+".wav", 1, []byte("vec")); err != nil {
			t.Fatal(err)
		}
	}

	profiles, err := s.ListVoiceProfiles(ctx)
	if err != nil {
		t.Fatalf("ListVoiceProfiles() error: %v", err)
	}
	var names []string
	for _, p := range profiles {
		names = append(names, p.Name)
		if p.Embedding != nil {
			t.Errorf("%s: listing should omit embeddings", p.Name)
		}
	}
	want := []string{"three", "two", "one"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
			break
		}
	}
}

func TestDeleteVoiceProfile_LeavesTurnReference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateVoiceProfile(ctx, "Dana", "dana.wav", 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveTurn(ctx, TurnInput{SessionID: "s", TurnNumber: 1, VoiceProfileID: &id}); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.DeleteVoiceProfile(ctx, id)
	if err != nil || !deleted {
		t.Fatalf("DeleteVoiceProfile() = %v, %v", deleted, err)
	}

	turns, err := s.History(ctx, "s", 1)
	if err != nil {
		t.Fatal(err)
	}
	if turns[0].VoiceProfileID == nil || *turns[0].VoiceProfileID != id {
		t.Errorf("VoiceProfileID = %v, want dangling %d", turns[0].VoiceProfileID, id)
	}
}
