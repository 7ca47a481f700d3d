package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "persistence root directory")
	roundID := fs.String("round", "", "round id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	actor := fs.String("actor", "", "actor filter (audits)")
	target := fs.String("target", "", "target filter (audits)")
	fromTick := fs.Uint64("from_tick", 0, "lower tick bound (inclusive)")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*roundID) == "" {
			fmt.Fprintln(os.Stderr, "missing -round or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, *roundID, "index.db")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	switch q {
	case "snapshots":
		rows, err := db.Query(`SELECT tick,path,seed,dominions FROM snapshots ORDER BY tick DESC LIMIT ?`, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick      int64  `json:"tick"`
				Path      string `json:"path"`
				Seed      int64  `json:"seed"`
				Dominions int    `json:"dominions"`
			}
			if err := rows.Scan(&r.Tick, &r.Path, &r.Seed, &r.Dominions); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		checkRows(rows.Err())

	case "ticks":
		rows, err := db.Query(`SELECT tick,digest,joins,leaves,actions FROM ticks WHERE tick>=? ORDER BY tick DESC LIMIT ?`, *fromTick, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick    int64  `json:"tick"`
				Digest  string `json:"digest"`
				Joins   int    `json:"joins"`
				Leaves  int    `json:"leaves"`
				Actions int    `json:"actions"`
			}
			if err := rows.Scan(&r.Tick, &r.Digest, &r.Joins, &r.Leaves, &r.Actions); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		checkRows(rows.Err())

	case "audits":
		where := "tick>=?"
		qargs := []any{*fromTick}
		if *actor != "" {
			where += " AND actor=?"
			qargs = append(qargs, *actor)
		}
		if *target != "" {
			where += " AND target=?"
			qargs = append(qargs, *target)
		}
		qargs = append(qargs, *limit)
		rows, err := db.Query(`SELECT tick,seq,actor,action,target,code,deltas_json FROM audits WHERE `+where+` ORDER BY tick DESC, seq DESC LIMIT ?`, qargs...)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick   int64           `json:"tick"`
				Seq    int             `json:"seq"`
				Actor  string          `json:"actor"`
				Action string          `json:"action"`
				Target string          `json:"target,omitempty"`
				Code   string          `json:"code,omitempty"`
				Deltas json.RawMessage `json:"deltas,omitempty"`
			}
			var deltas sql.NullString
			if err := rows.Scan(&r.Tick, &r.Seq, &r.Actor, &r.Action, &r.Target, &r.Code, &deltas); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			if deltas.Valid && deltas.String != "" {
				r.Deltas = json.RawMessage(deltas.String)
			}
			printJSON(r)
		}
		checkRows(rows.Err())

	case "catalogs":
		rows, err := db.Query(`SELECT name,digest,updated_at FROM catalogs ORDER BY name`)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Name      string `json:"name"`
				Digest    string `json:"digest"`
				UpdatedAt string `json:"updated_at"`
			}
			if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		checkRows(rows.Err())

	default:
		fmt.Fprintf(os.Stderr, "unknown query %q (want snapshots, ticks, audits or catalogs)\n", q)
		os.Exit(2)
	}
}

func checkRows(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal:", err)
		os.Exit(1)
	}
	fmt.Println(string(b))
}
