package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ravenhold.gg/internal/persistence/archive"
	"ravenhold.gg/internal/persistence/indexdb"
	persistlog "ravenhold.gg/internal/persistence/log"
	"ravenhold.gg/internal/persistence/snapshot"
	"ravenhold.gg/internal/sim/catalogs"
	"ravenhold.gg/internal/sim/round"
	"ravenhold.gg/internal/sim/tuning"
	"ravenhold.gg/internal/transport/ws"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	roundID := flag.String("round", "R1", "round id")
	seed := flag.Int64("seed", 1, "round rng seed (ignored when resuming from a snapshot)")
	configDir := flag.String("configs", "./configs", "catalog config directory")
	schemaDir := flag.String("schemas", "./schemas", "catalog JSON schema directory")
	dataDir := flag.String("data", "./data", "persistence root directory")
	tuningPath := flag.String("tuning", "", "optional tuning.yaml override (defaults apply when absent)")
	disableDB := flag.Bool("disable_db", false, "disable the sqlite runtime index")
	snapshotPath := flag.String("snapshot", "", "resume from this snapshot file")
	loadLatest := flag.Bool("load_latest_snapshot", false, "resume from the newest snapshot under the data dir")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir, *schemaDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	logger.Printf("catalogs loaded: spells=%s races=%s", cats.Spells.Digest[:12], cats.Races.Digest[:12])

	tune := tuning.Defaults()
	if *tuningPath != "" {
		tune, err = tuning.Load(*tuningPath)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Printf("tuning file %s not found, using defaults", *tuningPath)
			} else {
				logger.Fatalf("load tuning: %v", err)
			}
		}
	}

	roundDir := filepath.Join(*dataDir, *roundID)
	if err := os.MkdirAll(roundDir, 0o755); err != nil {
		logger.Fatalf("mkdir %s: %v", roundDir, err)
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(roundDir, "index.db"))
		if err != nil {
			logger.Fatalf("open sqlite index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("upsert catalogs: %v", err)
		}
	} else {
		logger.Printf("sqlite runtime index disabled")
	}

	resumeFrom := *snapshotPath
	if resumeFrom == "" && *loadLatest {
		resumeFrom, err = snapshot.Latest(*dataDir, *roundID)
		if err != nil {
			logger.Fatalf("find latest snapshot: %v", err)
		}
	}

	r, err := round.New(round.Config{ID: *roundID, Seed: *seed}, tune, cats)
	if err != nil {
		logger.Fatalf("new round: %v", err)
	}

	if resumeFrom != "" {
		snap, err := snapshot.ReadSnapshot(resumeFrom)
		if err != nil {
			logger.Fatalf("read snapshot %s: %v", resumeFrom, err)
		}
		if snap.Header.RoundID != *roundID {
			logger.Fatalf("snapshot %s belongs to round %s, not %s", resumeFrom, snap.Header.RoundID, *roundID)
		}
		if snap.State.TuningDigest != "" && snap.State.TuningDigest != tune.Digest() {
			logger.Printf("warning: tuning digest changed since snapshot (was %s)", snap.State.TuningDigest[:12])
		}
		r.Import(snap.State)
		logger.Printf("resumed round %s at tick %d (%d dominions)", *roundID, snap.Header.Tick, len(snap.State.Dominions))
	}

	tickLog := persistlog.NewTickLogger(roundDir)
	defer tickLog.Close()
	auditLog := persistlog.NewAuditLogger(roundDir)
	defer auditLog.Close()

	if idx != nil {
		r.SetTickLogger(multiTickLogger{a: tickLog, b: idx})
		r.SetAuditLogger(multiAuditLogger{a: auditLog, b: idx})
	} else {
		r.SetTickLogger(tickLog)
		r.SetAuditLogger(auditLog)
	}

	snapCh := make(chan round.SnapshotRequest, 4)
	r.SetSnapshotSink(snapCh)
	go func() {
		for req := range snapCh {
			snap := snapshot.FromState(req.State)
			path := snapshot.PathFor(*dataDir, *roundID, req.Tick)
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				logger.Printf("write snapshot tick=%d: %v", req.Tick, err)
				continue
			}
			if idx != nil {
				idx.RecordSnapshot(path, snap)
			}
			logger.Printf("snapshot written tick=%d path=%s", req.Tick, path)
			if day, archived, ok, err := archive.ArchiveDaySnapshot(roundDir, path, snap, tune.TicksPerDay); err != nil {
				logger.Printf("archive day snapshot: %v", err)
			} else if ok {
				logger.Printf("day %d archived: %s", day, archived)
			}
		}
	}()

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := r.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("round loop: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "round": *roundID, "tick": r.CurrentTick()})
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, _ *http.Request) {
		m := r.Metrics()
		tick := r.CurrentTick()
		if m.Tick != 0 {
			tick = m.Tick
		}

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP ravenhold_round_tick Current round tick.\n")
		fmt.Fprintf(rw, "# TYPE ravenhold_round_tick gauge\n")
		fmt.Fprintf(rw, "ravenhold_round_tick{round=%q} %d\n", *roundID, tick)

		fmt.Fprintf(rw, "# HELP ravenhold_round_dominions Current number of dominions in the round.\n")
		fmt.Fprintf(rw, "# TYPE ravenhold_round_dominions gauge\n")
		fmt.Fprintf(rw, "ravenhold_round_dominions{round=%q} %d\n", *roundID, m.Dominions)

		fmt.Fprintf(rw, "# HELP ravenhold_round_npcs Current number of NPC dominions.\n")
		fmt.Fprintf(rw, "# TYPE ravenhold_round_npcs gauge\n")
		fmt.Fprintf(rw, "ravenhold_round_npcs{round=%q} %d\n", *roundID, m.NPCs)

		fmt.Fprintf(rw, "# HELP ravenhold_round_clients Current number of connected clients.\n")
		fmt.Fprintf(rw, "# TYPE ravenhold_round_clients gauge\n")
		fmt.Fprintf(rw, "ravenhold_round_clients{round=%q} %d\n", *roundID, m.Clients)

		fmt.Fprintf(rw, "# HELP ravenhold_round_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE ravenhold_round_queue_depth gauge\n")
		fmt.Fprintf(rw, "ravenhold_round_queue_depth{round=%q,queue=%q} %d\n", *roundID, "inbox", m.QueueDepths.Inbox)
		fmt.Fprintf(rw, "ravenhold_round_queue_depth{round=%q,queue=%q} %d\n", *roundID, "join", m.QueueDepths.Join)
		fmt.Fprintf(rw, "ravenhold_round_queue_depth{round=%q,queue=%q} %d\n", *roundID, "leave", m.QueueDepths.Leave)
		fmt.Fprintf(rw, "ravenhold_round_queue_depth{round=%q,queue=%q} %d\n", *roundID, "attach", m.QueueDepths.Attach)

		fmt.Fprintf(rw, "# HELP ravenhold_round_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE ravenhold_round_step_ms gauge\n")
		fmt.Fprintf(rw, "ravenhold_round_step_ms{round=%q} %.3f\n", *roundID, m.StepMS)
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(r, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type multiTickLogger struct {
	a round.TickLogger
	b round.TickLogger
}

func (m multiTickLogger) WriteTick(entry round.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a round.AuditLogger
	b round.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry round.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
