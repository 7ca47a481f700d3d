package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"ravenhold.gg/internal/persistence/snapshot"
)

type DayArchiveMeta struct {
	Day         int    `json:"day"`
	EndTick     uint64 `json:"end_tick"`
	Seed        int64  `json:"seed"`
	Snapshot    string `json:"snapshot"`
	CreatedAt   string `json:"created_at"`
	TicksPerDay int    `json:"ticks_per_day"`
}

// ArchiveDaySnapshot copies a day-boundary snapshot into
// `roundDir/archives/day_<NNN>/` so daily standings survive snapshot
// rotation. It returns (day, archivedPath, archived=true) when the snapshot
// falls on a day boundary.
func ArchiveDaySnapshot(roundDir, snapshotPath string, snap snapshot.SnapshotV1, ticksPerDay int) (day int, archivedPath string, archived bool, err error) {
	if ticksPerDay <= 0 {
		return 0, "", false, nil
	}
	if snap.Header.Tick == 0 || snap.Header.Tick%uint64(ticksPerDay) != 0 {
		return 0, "", false, nil
	}
	day = int(snap.Header.Tick / uint64(ticksPerDay))

	archiveDir := filepath.Join(roundDir, "archives", fmt.Sprintf("day_%03d", day))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return 0, "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return 0, "", false, err
	}

	meta := DayArchiveMeta{
		Day:         day,
		EndTick:     snap.Header.Tick,
		Seed:        snap.State.Seed,
		Snapshot:    filepath.Base(dst),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		TicksPerDay: ticksPerDay,
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return day, dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
