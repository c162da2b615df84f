// Command kaede is the interactive console front end of the engine.
// It runs the same brain as kaede-server, but tick by tick under the
// operator's control.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mkotake/kaede/internal/drift"
	"github.com/mkotake/kaede/internal/engine"
	"github.com/mkotake/kaede/internal/llm"
)

func main() {
	seed := flag.Int64("seed", 0, "graine du générateur (0 = aléatoire)")
	snapshotPath := flag.String("snapshot", "kaede_snapshot.json", "chemin du snapshot")
	once := flag.Int("once", 0, "exécute N ticks puis quitte")
	baseURL := flag.String("llm", "", "URL du backend local (vide = mocks)")
	model := flag.String("model", "local-model", "nom du modèle local")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if *seed == 0 {
		*seed = drift.RandomSeed()
	}

	router := llm.DefaultRouter(*baseURL, *model)
	brain := engine.New(engine.Options{Seed: *seed, Models: router})

	if _, err := os.Stat(*snapshotPath); err == nil {
		if err := brain.LoadSnapshot(*snapshotPath); err != nil {
			fmt.Fprintf(os.Stderr, "snapshot illisible (%v), démarrage à zéro\n", err)
		} else {
			fmt.Printf("Snapshot restauré: tick %d\n", brain.Tick())
		}
	}

	if *once > 0 {
		for i := 0; i < *once; i++ {
			entry := brain.AdvanceTick()
			fmt.Printf("[%d] %s\n", entry.Tick, entry.Summary)
		}
		if err := brain.SaveSnapshot(*snapshotPath); err != nil {
			fmt.Fprintf(os.Stderr, "sauvegarde échouée: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Kaede — moteur autonome de décision et de mémoire")
	fmt.Printf("graine=%d tick=%d\n", *seed, brain.Tick())
	fmt.Println("Commandes: tick [n], chat <texte>, save [fichier], load [fichier], aide, quit")
	fmt.Println("Commandes moteur: etat, resume, idees, propose, suggere <action>, pause, reprendre, model ..., mode ...")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("kaede> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		runLine(brain, router, *snapshotPath, line)
	}

	if err := brain.SaveSnapshot(*snapshotPath); err != nil {
		fmt.Fprintf(os.Stderr, "sauvegarde finale échouée: %v\n", err)
	} else {
		fmt.Printf("Snapshot sauvegardé: %s\n", *snapshotPath)
	}
}

func runLine(brain *engine.Brain, router *llm.Router, defaultPath, line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "tick":
		n := 1
		if len(fields) == 2 {
			if parsed, err := strconv.Atoi(fields[1]); err == nil && parsed > 0 {
				n = parsed
			} else {
				fmt.Println("usage: tick [n]")
				return
			}
		}
		for i := 0; i < n; i++ {
			entry := brain.AdvanceTick()
			fmt.Printf("[%d] %s\n", entry.Tick, entry.Summary)
		}
	case "chat":
		message := strings.TrimSpace(strings.TrimPrefix(line, "chat"))
		if message == "" {
			fmt.Println("usage: chat <texte>")
			return
		}
		entry := brain.AdvanceTick()
		fmt.Printf("[%d] %s\n", entry.Tick, entry.Summary)
		reply, err := router.Ask(context.Background(), brain.BuildContextPacket(), message)
		if err != nil {
			fmt.Printf("erreur modèle: %v\n", err)
			return
		}
		fmt.Printf("%s\n", reply.Text)
		if directives := llm.ExtractDirectives(reply.Text); len(directives) > 0 {
			for _, res := range brain.ApplyDirectives(directives) {
				status := "appliquée"
				if !res.Applied {
					status = "refusée: " + res.Reason
				}
				fmt.Printf("directive %d %s\n", res.Index, status)
			}
		}
	case "save":
		path := defaultPath
		if len(fields) == 2 {
			path = fields[1]
		}
		if err := brain.SaveSnapshot(path); err != nil {
			fmt.Printf("sauvegarde échouée: %v\n", err)
			return
		}
		fmt.Printf("Snapshot sauvegardé: %s\n", path)
	case "load":
		path := defaultPath
		if len(fields) == 2 {
			path = fields[1]
		}
		if err := brain.LoadSnapshot(path); err != nil {
			fmt.Printf("chargement échoué: %v\n", err)
			return
		}
		fmt.Printf("Snapshot restauré: tick %d\n", brain.Tick())
	case "aide", "help":
		fmt.Println("tick [n], chat <texte>, save [fichier], load [fichier], quit")
		fmt.Println("etat, resume, idees, propose, suggere <action>, pause, reprendre,")
		fmt.Println("model status|auto|use <clé>, mode realtime|reflexion")
	default:
		out, err := brain.HandleCommand(line)
		if err != nil {
			if errors.Is(err, engine.ErrInvalidCommand) {
				fmt.Printf("%v (essayez: aide)\n", err)
			} else {
				fmt.Printf("erreur: %v\n", err)
			}
			return
		}
		fmt.Println(out)
	}
}
