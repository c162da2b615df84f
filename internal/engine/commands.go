package engine

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// CommandKind tags the parsed command variants.
type CommandKind int

const (
	CmdEtat CommandKind = iota
	CmdResume
	CmdIdees
	CmdPropose
	CmdSuggere
	CmdPause
	CmdReprendre
	CmdModel
	CmdMode
)

// Command is the strict parse of one command line.
type Command struct {
	Kind CommandKind
	Arg  string
}

// ParseCommand turns raw text into a tagged command. Unknown or
// malformed input yields ErrInvalidCommand, never a silent default.
func ParseCommand(text string) (Command, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: texte vide", ErrInvalidCommand)
	}
	verb, rest := fields[0], fields[1:]
	switch verb {
	case "etat":
		if len(rest) != 0 {
			return Command{}, fmt.Errorf("%w: etat ne prend pas d'argument", ErrInvalidCommand)
		}
		return Command{Kind: CmdEtat}, nil
	case "resume":
		if len(rest) != 0 {
			return Command{}, fmt.Errorf("%w: resume ne prend pas d'argument", ErrInvalidCommand)
		}
		return Command{Kind: CmdResume}, nil
	case "idees":
		if len(rest) != 0 {
			return Command{}, fmt.Errorf("%w: idees ne prend pas d'argument", ErrInvalidCommand)
		}
		return Command{Kind: CmdIdees}, nil
	case "propose":
		if len(rest) != 0 {
			return Command{}, fmt.Errorf("%w: propose ne prend pas d'argument", ErrInvalidCommand)
		}
		return Command{Kind: CmdPropose}, nil
	case "suggere":
		if len(rest) != 1 {
			return Command{}, fmt.Errorf("%w: usage suggere <action>", ErrInvalidCommand)
		}
		if !ValidAction(rest[0]) {
			return Command{}, fmt.Errorf("%w: action inconnue %q", ErrInvalidCommand, rest[0])
		}
		return Command{Kind: CmdSuggere, Arg: rest[0]}, nil
	case "pause":
		return Command{Kind: CmdPause}, nil
	case "reprendre":
		return Command{Kind: CmdReprendre}, nil
	case "model":
		if len(rest) == 0 {
			return Command{}, fmt.Errorf("%w: usage model status|auto|use <clé>", ErrInvalidCommand)
		}
		switch rest[0] {
		case "status", "auto":
			return Command{Kind: CmdModel, Arg: rest[0]}, nil
		case "use":
			if len(rest) != 2 {
				return Command{}, fmt.Errorf("%w: usage model use <clé>", ErrInvalidCommand)
			}
			return Command{Kind: CmdModel, Arg: "use " + rest[1]}, nil
		default:
			return Command{}, fmt.Errorf("%w: sous-commande model inconnue %q", ErrInvalidCommand, rest[0])
		}
	case "mode":
		if len(rest) != 1 || (rest[0] != "realtime" && rest[0] != "reflexion") {
			return Command{}, fmt.Errorf("%w: usage mode realtime|reflexion", ErrInvalidCommand)
		}
		return Command{Kind: CmdMode, Arg: rest[0]}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, verb)
	}
}

// HandleCommand parses and dispatches one command against current
// state. Errors come back as values; nothing here advances the tick.
func (b *Brain) HandleCommand(text string) (string, error) {
	cmd, err := ParseCommand(text)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch cmd.Kind {
	case CmdEtat:
		return b.renderEtat(), nil
	case CmdResume:
		return b.renderResume(), nil
	case CmdIdees:
		return b.renderIdees(), nil
	case CmdPropose:
		eligible := b.gate()
		action, _ := b.choose(eligible)
		return fmt.Sprintf("Je veux faire: %s (objectif %s).", action, b.goalLabel()), nil
	case CmdSuggere:
		return b.renderSuggere(Action(cmd.Arg)), nil
	case CmdPause:
		b.paused = true
		return "Moteur en pause.", nil
	case CmdReprendre:
		b.paused = false
		return "Reprise du moteur.", nil
	case CmdModel:
		return b.handleModel(cmd.Arg)
	case CmdMode:
		if b.models == nil {
			return "Routeur de modèles indisponible.", nil
		}
		if err := b.models.SetMode(cmd.Arg); err != nil {
			return "", err
		}
		return "Mode " + cmd.Arg + " activé.", nil
	}
	// Unreachable: ParseCommand only produces the kinds above.
	return "", fmt.Errorf("%w: %q", ErrInvalidCommand, text)
}

func (b *Brain) handleModel(arg string) (string, error) {
	if b.models == nil {
		return "Routeur de modèles indisponible.", nil
	}
	switch {
	case arg == "status":
		return b.models.StatusLine(), nil
	case arg == "auto":
		b.models.SetAuto()
		return "Sélection automatique du modèle activée.", nil
	case strings.HasPrefix(arg, "use "):
		key := strings.TrimPrefix(arg, "use ")
		if err := b.models.Use(key); err != nil {
			return "", err
		}
		return "Modèle " + key + " sélectionné.", nil
	}
	return "", fmt.Errorf("%w: model %s", ErrInvalidCommand, arg)
}

func (b *Brain) goalLabel() string {
	if !b.intention.Active() {
		return "aucun"
	}
	if b.intention.Goal == GoalPursueIdea && b.intention.IdeaTitle != "" {
		return fmt.Sprintf("%s: %s", b.intention.Goal, b.intention.IdeaTitle)
	}
	return string(b.intention.Goal)
}

func (b *Brain) renderEtat() string {
	s, w := b.state, b.world
	return fmt.Sprintf(
		"tick=%s phase=%s objectif=%s pause=%t\n"+
			"énergie=%.2f clarté=%.2f stabilité=%.2f curiosité=%.2f tolérance_risque=%.2f fatigue=%.2f stress=%.2f\n"+
			"monde: instabilité=%.2f opportunité=%.2f danger=%.2f nouveauté=%.2f stabilité_globale=%.2f",
		humanize.Comma(int64(b.clock.Tick)), b.clock.SimDayPhase(), b.goalLabel(), b.paused,
		s.Energy, s.Clarity, s.Stability, s.Curiosity, s.RiskTolerance, s.Fatigue, s.Stress,
		w.Instability, w.Opportunity, w.Danger, w.Novelty, w.GlobalStability,
	)
}

func (b *Brain) renderResume() string {
	if len(b.daySummaries) == 0 {
		var sb strings.Builder
		sb.WriteString("Pas encore de journée complète. Derniers événements:\n")
		start := 0
		if len(b.humanJournal) > 5 {
			start = len(b.humanJournal) - 5
		}
		for _, line := range b.humanJournal[start:] {
			sb.WriteString("- " + line + "\n")
		}
		return strings.TrimRight(sb.String(), "\n")
	}
	d := b.daySummaries[len(b.daySummaries)-1]
	var sb strings.Builder
	fmt.Fprintf(&sb, "Jour %d — taux d'échec %.0f%%, %s souvenirs marquants.\n",
		d.DayIndex, d.FailRate*100, humanize.Comma(int64(len(b.marked))))
	sb.WriteString("Actions dominantes:")
	for _, ac := range d.DominantActions {
		fmt.Fprintf(&sb, " %s×%d", ac.Action, ac.Count)
	}
	return sb.String()
}

func (b *Brain) renderIdees() string {
	if len(b.ideas) == 0 {
		return "Aucune idée en attente."
	}
	var sb strings.Builder
	for i, idea := range b.ideas {
		fmt.Fprintf(&sb, "%d. %s (priorité %.2f, contexte %s)\n", i+1, idea.Title, idea.Priority, idea.ContextTag)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderSuggere answers whether the engine would accept a suggested
// action right now. It runs the full one-off evaluation, gating then
// scoring, so an eligible action that still loses to the current best
// comes back as a qualified yes rather than a flat one.
func (b *Brain) renderSuggere(action Action) string {
	if until := b.exclusionUntil(action); until > b.clock.Tick {
		return fmt.Sprintf("Non, %s est écartée jusqu'au tick %d.", action, until)
	}
	eligible := b.gate()
	found := false
	for _, a := range eligible {
		if a == action {
			found = true
			break
		}
	}
	if !found {
		return fmt.Sprintf("Non, %s est filtrée par mon état actuel.", action)
	}
	best, scores := b.choose(eligible)
	if best == action {
		return fmt.Sprintf("Oui, %s est justement mon meilleur choix.", action)
	}
	rank := 1
	for _, s := range scores {
		if s > scores[action] {
			rank++
		}
	}
	return fmt.Sprintf("Oui, je peux faire %s, mais je préférerais %s (rang %d sur %d).",
		action, best, rank, len(scores))
}
