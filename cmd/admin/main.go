package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ravenhold.gg/internal/persistence/snapshot"
	"ravenhold.gg/internal/sim/round"
)

// admin is an offline inspection tool for a round's data directory: it
// lists what the server has written and digs into snapshots and the
// sqlite runtime index without touching the live process.
func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "persistence root directory")
	roundID := fs.String("round", "", "round id (optional)")
	_ = fs.Parse(args)

	base := *dataDir
	if *roundID != "" {
		base = filepath.Join(base, *roundID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "persistence root directory")
	roundID := fs.String("round", "", "round id (required unless -snapshot)")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	dominionID := fs.String("dominion", "", "print one dominion in full (optional)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(*snapPath)
	if path == "" {
		if strings.TrimSpace(*roundID) == "" {
			fmt.Fprintln(os.Stderr, "missing -round or -snapshot")
			os.Exit(2)
		}
		var err error
		path, err = snapshot.Latest(*dataDir, *roundID)
		if err != nil || path == "" {
			fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run server until it writes one")
			os.Exit(2)
		}
	}

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	st := snap.State
	fmt.Printf("snapshot v%d round=%s tick=%d seed=%d dominions=%d\n",
		snap.Header.Version, snap.Header.RoundID, snap.Header.Tick, st.Seed, len(st.Dominions))
	fmt.Printf("catalogs spells=%s races=%s tuning=%s\n",
		short(st.SpellsDigest), short(st.RacesDigest), short(st.TuningDigest))

	if *dominionID != "" {
		for _, d := range st.Dominions {
			if d.ID == *dominionID {
				printJSON(d)
				return
			}
		}
		fmt.Fprintln(os.Stderr, "dominion not found:", *dominionID)
		os.Exit(2)
	}

	// One line per dominion, largest first.
	doms := append([]snapshotDominion(nil), toRows(st.Dominions)...)
	sort.Slice(doms, func(i, j int) bool { return doms[i].Land > doms[j].Land })
	for _, d := range doms {
		fmt.Printf("%-6s realm=%d race=%-10s land=%-5d peasants=%-6d wizards=%-5d npc=%v locked=%v\n",
			d.ID, d.Realm, d.Race, d.Land, d.Peasants, d.Wizards, d.NPC, d.Locked)
	}
}

type snapshotDominion struct {
	ID       string
	Realm    int
	Race     string
	Land     int
	Peasants int
	Wizards  int
	NPC      bool
	Locked   bool
}

func toRows(doms []round.ExportedDominion) []snapshotDominion {
	out := make([]snapshotDominion, 0, len(doms))
	for _, d := range doms {
		total := 0
		for _, n := range d.Land {
			total += n
		}
		out = append(out, snapshotDominion{
			ID:       d.ID,
			Realm:    d.Realm,
			Race:     d.Race,
			Land:     total,
			Peasants: d.Peasants,
			Wizards:  d.Units[round.UnitWizards],
			NPC:      d.NPC,
			Locked:   d.Locked,
		})
	}
	return out
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
