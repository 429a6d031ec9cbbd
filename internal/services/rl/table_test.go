package rl

import (
	"math/rand/v2"
	"testing"

	"TradeSim/internal/domain/models"
)

func TestUniformDefaultRange(t *testing.T) {
	def := UniformDefault(rand.New(rand.NewPCG(9, 9)))
	for i := 0; i < 1000; i++ {
		for _, x := range def(models.State{}) {
			if x < -1 || x >= 1 {
				t.Fatalf("default value %v outside [-1, 1)", x)
			}
		}
	}
}

func TestGetOrInsertMaterializesOnce(t *testing.T) {
	calls := 0
	table := NewTable(func(models.State) models.ActionValues {
		calls++
		return models.ActionValues{1, 2, 3}
	})
	s := models.NewState(1, 0.5, 1, false, 0)
	if _, ok := table.Lookup(s); ok {
		t.Fatalf("lookup must not insert")
	}
	table.GetOrInsert(s)[0] = 9
	if got := *table.GetOrInsert(s); got != (models.ActionValues{9, 2, 3}) {
		t.Fatalf("unexpected values %v", got)
	}
	if calls != 1 || table.Len() != 1 {
		t.Fatalf("default called %d times, table size %d", calls, table.Len())
	}
}

func TestRestoreKeepsValuesAndDefaultRule(t *testing.T) {
	seen := models.NewState(1.02, 0.55, 1.23, false, 0.3)
	unseen := models.NewState(0.97, 0.31, 2.5, true, 0)

	trained := NewTable(UniformDefault(rand.New(rand.NewPCG(1, 2))))
	*trained.GetOrInsert(seen) = models.ActionValues{0.25, -0.125, 3.5}
	snap := trained.Snapshot()

	fresh := NewTable(UniformDefault(rand.New(rand.NewPCG(77, 78))))
	restored := RestoreTable(snap, UniformDefault(rand.New(rand.NewPCG(77, 78))))

	if got, ok := restored.Lookup(seen); !ok || got != snap[seen] {
		t.Fatalf("restored %v want %v", got, snap[seen])
	}
	if a, b := *fresh.GetOrInsert(unseen), *restored.GetOrInsert(unseen); a != b {
		t.Fatalf("unseen state default differs after restore: %v vs %v", a, b)
	}

	snap[seen] = models.ActionValues{}
	if got, _ := restored.Lookup(seen); got == snap[seen] {
		t.Fatalf("restored table must not alias the snapshot")
	}
}

func TestEstimateDoesNotInsert(t *testing.T) {
	known := models.NewState(1.02, 0.55, 1.23, false, 0.3)
	unseen := models.NewState(0.97, 0.31, 2.5, true, 0)

	calls := 0
	table := NewTable(func(models.State) models.ActionValues {
		calls++
		return models.ActionValues{0, 1, 0}
	})
	*table.GetOrInsert(known) = models.ActionValues{3, 2, 1}

	if got := table.Estimate(known); got != (models.ActionValues{3, 2, 1}) {
		t.Fatalf("stored estimate %v", got)
	}
	if got := table.Estimate(unseen); got != (models.ActionValues{0, 1, 0}) {
		t.Fatalf("default estimate %v", got)
	}
	if table.Len() != 1 {
		t.Fatalf("Estimate must not insert, table size %d", table.Len())
	}
	if _, ok := table.Lookup(unseen); ok {
		t.Fatalf("unseen state was recorded")
	}
}
