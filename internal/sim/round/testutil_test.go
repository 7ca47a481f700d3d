package round

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"ravenhold.gg/internal/protocol"
	"ravenhold.gg/internal/sim/catalogs"
	"ravenhold.gg/internal/sim/tuning"
)

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find repo root from %s", dir)
		}
		dir = parent
	}
}

var (
	catsOnce sync.Once
	catsMem  *catalogs.Catalogs
	catsErr  error
)

func testCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	catsOnce.Do(func() {
		root := findRepoRoot(t)
		catsMem, catsErr = catalogs.Load(filepath.Join(root, "configs"), filepath.Join(root, "schemas"))
	})
	if catsErr != nil {
		t.Fatalf("load catalogs: %v", catsErr)
	}
	return catsMem
}

func newTestRound(t *testing.T, seed int64) *Round {
	t.Helper()
	r, err := New(Config{ID: "R1", Seed: seed}, tuning.Defaults(), testCatalogs(t))
	if err != nil {
		t.Fatalf("new round: %v", err)
	}
	return r
}

// joinTestDominion registers a dominion directly on the loop state; tests
// call engine methods without running the loop goroutine.
func joinTestDominion(t *testing.T, r *Round, race string, realm int, now uint64) *Dominion {
	t.Helper()
	resp := r.handleJoin(JoinRequest{Name: "test", Race: race, Realm: realm}, now)
	d, ok := r.dominions[resp.Welcome.DominionID]
	if !ok {
		t.Fatalf("join did not register dominion %s", resp.Welcome.DominionID)
	}
	return d
}

// attachTestClient wires an outbound channel so tests can observe the
// notices a dominion receives.
func attachTestClient(r *Round, d *Dominion) chan []byte {
	ch := make(chan []byte, 8)
	r.clients[d.ID] = &clientState{Out: ch}
	return ch
}

func nextNotice(t *testing.T, ch chan []byte) protocol.NoticeMsg {
	t.Helper()
	var n protocol.NoticeMsg
	select {
	case b := <-ch:
		if err := json.Unmarshal(b, &n); err != nil {
			t.Fatalf("decode notice: %v", err)
		}
	default:
		t.Fatal("no notice delivered")
	}
	return n
}

// stubRand drives contested rolls from fixed values.
type stubRand struct {
	float   float64
	intn    int
	between int
	chance  bool
}

func (s *stubRand) Float64() float64      { return s.float }
func (s *stubRand) Intn(n int) int        { return s.intn % n }
func (s *stubRand) Between(lo, _ int) int { return lo + s.between }

func (s *stubRand) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.chance
}
