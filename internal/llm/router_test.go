package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mkotake/kaede/internal/engine"
)

type failingBackend struct{ key string }

func (f *failingBackend) Key() string { return f.key }
func (f *failingBackend) Ready() bool { return true }
func (f *failingBackend) Generate(ctx context.Context, req Request) (Reply, error) {
	return Reply{}, errors.New("connexion refusée")
}

func testPacket() engine.ContextPacket {
	return engine.ContextPacket{Tick: 10, Goal: "progress"}
}

func TestRouterFallsBackToMock(t *testing.T) {
	r := NewRouter(
		&failingBackend{key: KeyLocal},
		NewMock(KeyMockRealtime, "réponse rapide", 0),
		NewMock(KeyMockReflective, "réflexion posée", 0),
	)

	reply, err := r.Ask(context.Background(), testPacket(), "bonjour")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply.Model != KeyMockRealtime {
		t.Fatalf("model = %q, want the realtime mock", reply.Model)
	}
	if reply.Meta["error"] != "fallback:"+KeyLocal {
		t.Fatalf("meta = %v, want fallback marker", reply.Meta)
	}
}

func TestRouterModeSelectsMockTier(t *testing.T) {
	r := NewRouter(
		NewMock(KeyMockRealtime, "réponse rapide", 0),
		NewMock(KeyMockReflective, "réflexion posée", 0),
	)

	reply, err := r.Ask(context.Background(), testPacket(), "salut")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply.Model != KeyMockRealtime {
		t.Fatalf("realtime model = %q", reply.Model)
	}

	if err := r.SetMode(ModeReflexion); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	reply, err = r.Ask(context.Background(), testPacket(), "salut")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply.Model != KeyMockReflective {
		t.Fatalf("reflexion model = %q", reply.Model)
	}
}

func TestRouterForcedBackend(t *testing.T) {
	r := NewRouter(
		NewMock(KeyMockRealtime, "réponse rapide", 0),
		NewMock(KeyMockReflective, "réflexion posée", 0),
	)

	if err := r.Use("inexistant"); err == nil {
		t.Fatalf("unknown key accepted")
	}
	if err := r.Use(KeyMockReflective); err != nil {
		t.Fatalf("use: %v", err)
	}
	if s := r.Snapshot(); s.AutoMode || s.Forced != KeyMockReflective {
		t.Fatalf("status after use = %+v", s)
	}

	reply, err := r.Ask(context.Background(), testPacket(), "salut")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply.Model != KeyMockReflective {
		t.Fatalf("forced model = %q", reply.Model)
	}

	r.SetAuto()
	if s := r.Snapshot(); !s.AutoMode || s.Forced != "" {
		t.Fatalf("status after auto = %+v", s)
	}
}

func TestRouterRejectsUnknownMode(t *testing.T) {
	r := NewRouter(NewMock(KeyMockRealtime, "p", 0))
	if err := r.SetMode("turbo"); err == nil {
		t.Fatalf("unknown mode accepted")
	}
}

func TestStatusLineCarriesAutoMode(t *testing.T) {
	r := NewRouter(NewMock(KeyMockRealtime, "p", 0))
	line := r.StatusLine()
	if !strings.Contains(line, "auto_mode") || !strings.Contains(line, "realtime") {
		t.Fatalf("status line = %q", line)
	}
}

func TestDefaultRouterWithoutLocalEndpoint(t *testing.T) {
	r := DefaultRouter("", "local-model")
	reply, err := r.Ask(context.Background(), testPacket(), "état ?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply.Model != KeyMockRealtime {
		t.Fatalf("model = %q, want the realtime mock with no local endpoint", reply.Model)
	}
}
