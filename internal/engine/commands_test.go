package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCommandRejectsUnknown(t *testing.T) {
	for _, text := range []string{"", "   ", "bidule", "etat maintenant", "suggere", "suggere voler", "model", "mode turbo"} {
		if _, err := ParseCommand(text); !errors.Is(err, ErrInvalidCommand) {
			t.Fatalf("ParseCommand(%q) err = %v, want ErrInvalidCommand", text, err)
		}
	}
}

func TestParseCommandAccepts(t *testing.T) {
	cases := []struct {
		text string
		kind CommandKind
		arg  string
	}{
		{"etat", CmdEtat, ""},
		{"resume", CmdResume, ""},
		{"idees", CmdIdees, ""},
		{"propose", CmdPropose, ""},
		{"suggere rest", CmdSuggere, "rest"},
		{"pause", CmdPause, ""},
		{"reprendre", CmdReprendre, ""},
		{"model status", CmdModel, "status"},
		{"model auto", CmdModel, "auto"},
		{"model use qwen2.5-14b", CmdModel, "use qwen2.5-14b"},
		{"mode reflexion", CmdMode, "reflexion"},
	}
	for _, c := range cases {
		cmd, err := ParseCommand(c.text)
		if err != nil {
			t.Fatalf("ParseCommand(%q): %v", c.text, err)
		}
		if cmd.Kind != c.kind || cmd.Arg != c.arg {
			t.Fatalf("ParseCommand(%q) = %+v", c.text, cmd)
		}
	}
}

func TestHandleEtat(t *testing.T) {
	b := New(Options{Seed: 1})
	out, err := b.HandleCommand("etat")
	if err != nil {
		t.Fatalf("etat: %v", err)
	}
	for _, frag := range []string{"tick=", "énergie=", "stress=", "monde:"} {
		if !strings.Contains(out, frag) {
			t.Fatalf("etat output missing %q:\n%s", frag, out)
		}
	}
}

func TestHandlePropose(t *testing.T) {
	b := New(Options{Seed: 1})
	out, err := b.HandleCommand("propose")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if !strings.HasPrefix(out, "Je veux faire: ") {
		t.Fatalf("propose output = %q", out)
	}
	// propose previews, never executes.
	if b.Tick() != 0 {
		t.Fatalf("propose advanced the tick to %d", b.Tick())
	}
}

func TestHandleSuggere(t *testing.T) {
	b := New(Options{Seed: 1})
	out, err := b.HandleCommand("suggere rest")
	if err != nil {
		t.Fatalf("suggere: %v", err)
	}
	if !strings.HasPrefix(out, "Oui") {
		t.Fatalf("rest should be acceptable at defaults: %q", out)
	}

	b.state.Energy = 0.05
	out, err = b.HandleCommand("suggere challenge")
	if err != nil {
		t.Fatalf("suggere: %v", err)
	}
	if !strings.HasPrefix(out, "Non") {
		t.Fatalf("challenge should be refused at critical energy: %q", out)
	}
}

// suggere scores the eligible set, not just the gate: at critical
// energy only rest and idle pass, and rest outscores idle by more than
// the jitter amplitude, so rest is a flat yes and idle a qualified one.
func TestHandleSuggereScoresEligible(t *testing.T) {
	b := New(Options{Seed: 1})
	b.state.Energy = 0.05

	out, err := b.HandleCommand("suggere rest")
	if err != nil {
		t.Fatalf("suggere rest: %v", err)
	}
	if !strings.Contains(out, "meilleur choix") {
		t.Fatalf("rest should be the best choice at critical energy: %q", out)
	}

	out, err = b.HandleCommand("suggere idle")
	if err != nil {
		t.Fatalf("suggere idle: %v", err)
	}
	if !strings.HasPrefix(out, "Oui") || !strings.Contains(out, "préférerais rest") {
		t.Fatalf("idle should be a qualified yes losing to rest: %q", out)
	}
	if b.Tick() != 0 {
		t.Fatalf("suggere advanced the tick to %d", b.Tick())
	}
}

func TestHandleIdees(t *testing.T) {
	b := New(Options{Seed: 1})
	out, _ := b.HandleCommand("idees")
	if out != "Aucune idée en attente." {
		t.Fatalf("empty backlog output = %q", out)
	}
	b.addIdea("creuser la découverte", "discovery", 0.7)
	out, _ = b.HandleCommand("idees")
	if !strings.Contains(out, "creuser la découverte") || !strings.Contains(out, "0.70") {
		t.Fatalf("idees output = %q", out)
	}
}

func TestHandleResumeBeforeFirstDay(t *testing.T) {
	b := New(Options{Seed: 1})
	b.AdvanceTick()
	out, err := b.HandleCommand("resume")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !strings.Contains(out, "Pas encore de journée complète") {
		t.Fatalf("resume before first day = %q", out)
	}
}

type stubModels struct {
	status string
	forced string
	mode   string
}

func (s *stubModels) StatusLine() string { return s.status }
func (s *stubModels) SetAuto()           { s.forced = "" }
func (s *stubModels) Use(key string) error {
	s.forced = key
	return nil
}
func (s *stubModels) SetMode(mode string) error {
	s.mode = mode
	return nil
}

func TestHandleModel(t *testing.T) {
	models := &stubModels{status: `{"auto_mode":true,"mode":"realtime"}`}
	b := New(Options{Seed: 1, Models: models})

	out, err := b.HandleCommand("model status")
	if err != nil {
		t.Fatalf("model status: %v", err)
	}
	if !strings.Contains(out, "auto_mode") {
		t.Fatalf("model status output = %q", out)
	}

	if _, err := b.HandleCommand("model use qwen2.5-14b"); err != nil {
		t.Fatalf("model use: %v", err)
	}
	if models.forced != "qwen2.5-14b" {
		t.Fatalf("forced = %q", models.forced)
	}
	if _, err := b.HandleCommand("model auto"); err != nil {
		t.Fatalf("model auto: %v", err)
	}
	if models.forced != "" {
		t.Fatalf("auto did not clear the forced key")
	}
	if _, err := b.HandleCommand("mode reflexion"); err != nil {
		t.Fatalf("mode: %v", err)
	}
	if models.mode != "reflexion" {
		t.Fatalf("mode = %q", models.mode)
	}
}

func TestHandleModelWithoutRouter(t *testing.T) {
	b := New(Options{Seed: 1})
	out, err := b.HandleCommand("model status")
	if err != nil {
		t.Fatalf("model status: %v", err)
	}
	if !strings.Contains(out, "indisponible") {
		t.Fatalf("output = %q", out)
	}
}
