package engine

import "testing"

func TestIntentionDefaultsToProgress(t *testing.T) {
	b := New(Options{Seed: 1})
	b.stepIntention()
	if b.intention.Goal != GoalProgress {
		t.Fatalf("goal = %s, want progress with default state", b.intention.Goal)
	}
	if b.intention.TTL < 5 || b.intention.TTL > 20 {
		t.Fatalf("TTL = %d, want [5,20]", b.intention.TTL)
	}
}

func TestIntentionPriorityOrder(t *testing.T) {
	b := New(Options{Seed: 1})
	b.state.Energy = 0.30    // recover condition
	b.state.Stability = 0.40 // stabilize condition too
	b.stepIntention()
	if b.intention.Goal != GoalRecover {
		t.Fatalf("goal = %s, recover must outrank stabilize", b.intention.Goal)
	}

	b = New(Options{Seed: 1})
	b.state.Stress = 0.70
	b.stepIntention()
	if b.intention.Goal != GoalStabilize {
		t.Fatalf("goal = %s, want stabilize under stress", b.intention.Goal)
	}

	b = New(Options{Seed: 1})
	b.state.Curiosity = 0.75
	b.stepIntention()
	if b.intention.Goal != GoalExplore {
		t.Fatalf("goal = %s, want explore with high curiosity", b.intention.Goal)
	}
}

func TestIntentionTTLCountdown(t *testing.T) {
	b := New(Options{Seed: 1})
	b.intention = Intention{Goal: GoalProgress, TTL: 3, Priority: 0.5}

	b.stepIntention()
	if b.intention.Goal != GoalProgress || b.intention.TTL != 2 {
		t.Fatalf("after 1 step: goal=%s ttl=%d", b.intention.Goal, b.intention.TTL)
	}
	b.stepIntention()
	b.stepIntention()
	// TTL expired; default state re-selects progress with a fresh TTL.
	if b.intention.TTL < 5 {
		t.Fatalf("expired intention not replaced: ttl=%d", b.intention.TTL)
	}
}

func TestIntentionCancel(t *testing.T) {
	b := New(Options{Seed: 1})
	// Default state satisfies the recover cancel condition immediately.
	b.intention = Intention{Goal: GoalRecover, TTL: 15, Priority: 1.0}
	b.stepIntention()
	if b.intention.Goal == GoalRecover {
		t.Fatalf("satisfied recover intention not cancelled")
	}
}

func TestIntentionPromotesIdea(t *testing.T) {
	b := New(Options{Seed: 1})
	// Keep curiosity at the explore threshold boundary so the idea
	// branch is reachable.
	b.addIdea("creuser la découverte", "discovery", 0.9)
	b.stepIntention()
	if b.intention.Goal != GoalPursueIdea {
		t.Fatalf("goal = %s, want pursue_idea", b.intention.Goal)
	}
	if b.intention.IdeaTitle != "creuser la découverte" {
		t.Fatalf("idea title = %q", b.intention.IdeaTitle)
	}
	if len(b.ideas) != 0 {
		t.Fatalf("promoted idea not consumed, %d left", len(b.ideas))
	}
}

func TestIntentionFit(t *testing.T) {
	i := Intention{Goal: GoalRecover, TTL: 5, Priority: 1.0}
	if got := i.Fit(ActionRest); got != 1.0 {
		t.Fatalf("recover/rest fit = %v, want 1.0", got)
	}
	if got := i.Fit(ActionChallenge); got != 0 {
		t.Fatalf("recover/challenge fit = %v, want 0", got)
	}
	if got := (Intention{}).Fit(ActionRest); got != 0 {
		t.Fatalf("inactive intention fit = %v, want 0", got)
	}
}

func TestAddIdeaDedupe(t *testing.T) {
	b := New(Options{Seed: 1})
	b.addIdea("saisir l'opportunité", "opportunity_exceptionnelle", 0.5)
	b.addIdea("saisir l'opportunité", "opportunity_exceptionnelle", 0.8)
	if len(b.ideas) != 1 {
		t.Fatalf("duplicate title created %d ideas", len(b.ideas))
	}
	if b.ideas[0].Priority != 0.8 {
		t.Fatalf("priority not raised on refresh: %v", b.ideas[0].Priority)
	}
	// A lower re-add never downgrades.
	b.addIdea("saisir l'opportunité", "opportunity_exceptionnelle", 0.2)
	if b.ideas[0].Priority != 0.8 {
		t.Fatalf("priority downgraded: %v", b.ideas[0].Priority)
	}
}

func TestIdeasSortedByPriority(t *testing.T) {
	b := New(Options{Seed: 1})
	b.addIdea("a", "t", 0.3)
	b.addIdea("b", "t", 0.9)
	b.addIdea("c", "t", 0.6)
	if b.ideas[0].Title != "b" || b.ideas[1].Title != "c" || b.ideas[2].Title != "a" {
		t.Fatalf("ideas not sorted: %v %v %v", b.ideas[0].Title, b.ideas[1].Title, b.ideas[2].Title)
	}
	if b.popIdea().Title != "b" {
		t.Fatalf("popIdea did not return the top entry")
	}
	if len(b.ideas) != 2 {
		t.Fatalf("popIdea left %d ideas", len(b.ideas))
	}
}

func TestDetectStagnation(t *testing.T) {
	b := New(Options{Seed: 1})
	for i := 0; i < 20; i++ {
		b.pushWindow(ActionPractice)
	}
	b.detectStagnation()
	if len(b.ideas) != 1 || b.ideas[0].Title != "changer d'approche" {
		t.Fatalf("stagnation idea missing: %+v", b.ideas)
	}
	if b.ideas[0].Priority != 0.9 {
		t.Fatalf("stagnation priority = %v, want 0.9", b.ideas[0].Priority)
	}

	// Diverse window: no idea.
	b2 := New(Options{Seed: 1})
	for i, spec := range Catalog {
		for j := 0; j < 3+i%2; j++ {
			b2.pushWindow(spec.Name)
		}
	}
	b2.detectStagnation()
	if len(b2.ideas) != 0 {
		t.Fatalf("stagnation flagged on a diverse window: %+v", b2.ideas)
	}
}
