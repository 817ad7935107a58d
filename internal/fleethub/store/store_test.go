package store

import (
	"sync"
	"testing"
	"time"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fleet() []model.VesselState {
	return []model.VesselState{
		{Identifier: "V2", VesselType: model.VesselTypeBulker, Status: model.StatusAtSea, DataSource: model.SourceSimulated, LastUpdated: t0},
		{Identifier: "V1", VesselType: model.VesselTypeTanker, Status: model.StatusAtSea, DataSource: model.SourceSimulated, LastUpdated: t0},
		{Identifier: "V3", VesselType: model.VesselTypeTanker, Status: model.StatusInPort, DataSource: model.SourceSimulated, LastUpdated: t0},
	}
}

func TestUpdateReportsOnlyChangedVessels(t *testing.T) {
	s := New(fleet(), t0)

	c := s.Update(1, t0.Add(time.Second), func(tx *Tx) {
		v, _ := tx.Get("V1")
		v.Position.Lat = 1
		tx.Put(v)

		same, _ := tx.Get("V2")
		tx.Put(same)

		if tx.Put(model.VesselState{Identifier: "X9"}) {
			t.Error("Put accepted an unknown vessel")
		}
	})

	if c.Tick != 1 || len(c.Changed) != 1 || c.Changed[0].Identifier != "V1" {
		t.Fatalf("commit = %+v", c)
	}
	if s.Len() != 3 {
		t.Errorf("store grew to %d vessels", s.Len())
	}
	if s.Tick() != 1 {
		t.Errorf("tick = %d", s.Tick())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(fleet(), t0)

	view := s.Snapshot(model.AllVessels())
	view.Vessels[0].Position.Lat = 45

	v, _ := s.Get(view.Vessels[0].Identifier)
	if v.Position.Lat != 0 {
		t.Error("mutating a snapshot changed the store")
	}
	if got := []string{view.Vessels[0].Identifier, view.Vessels[1].Identifier, view.Vessels[2].Identifier}; got[0] != "V1" || got[2] != "V3" {
		t.Errorf("snapshot not sorted: %v", got)
	}
}

func TestSnapshotFilterAndSummary(t *testing.T) {
	s := New(fleet(), t0)

	view := s.Snapshot(model.ByTypes(model.VesselTypeTanker))
	if len(view.Vessels) != 2 {
		t.Fatalf("tanker snapshot has %d vessels", len(view.Vessels))
	}

	sum := s.Summary()
	if sum.Total != 3 || sum.ByType[model.VesselTypeTanker] != 2 || sum.ByStatus[model.StatusInPort] != 1 || sum.BySource[model.SourceSimulated] != 3 {
		t.Errorf("summary = %+v", sum)
	}
	if view.Summary().Total != 2 {
		t.Errorf("view summary total = %d", view.Summary().Total)
	}
}

func TestReadersSeeWholeTicks(t *testing.T) {
	s := New(fleet(), t0)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			view := s.Snapshot(model.AllVessels())
			lat := view.Vessels[0].Position.Lat
			for _, v := range view.Vessels {
				if v.Position.Lat != lat {
					t.Errorf("torn read at tick %d: %v vs %v", view.Tick, v.Position.Lat, lat)
					return
				}
			}
		}
	}()

	for tick := uint64(1); tick <= 200; tick++ {
		s.Update(tick, t0, func(tx *Tx) {
			for _, id := range tx.IDs() {
				v, _ := tx.Get(id)
				v.Position.Lat = float64(tick % 90)
				tx.Put(v)
			}
		})
	}
	close(stop)
	wg.Wait()
}
