package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/kpibonus/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleGraph(team string) *model.Graph {
	return &model.Graph{
		Teams:     []model.Team{{Name: team, BonusPool: 100}},
		Employees: []model.Employee{{ID: "E1", Name: "Ann", Team: team}},
	}
}

func TestGraphStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		fixed := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
		s := NewGraphStore(WithClock(func() time.Time { return fixed }))

		Convey("Then nothing is published yet", func() {
			_, err := s.Current(ctx)
			So(errors.Is(err, ErrNoDataset), ShouldBeTrue)
			So(s.Version(), ShouldEqual, 0)
		})

		Convey("When publishing a graph", func() {
			snap, err := s.Publish(ctx, sampleGraph("Sales"))
			So(err, ShouldBeNil)

			Convey("Then it is current and indexed", func() {
				cur, err := s.Current(ctx)
				So(err, ShouldBeNil)
				So(cur, ShouldEqual, snap)
				So(cur.Version, ShouldEqual, 1)
				So(cur.PublishedAt, ShouldEqual, fixed)

				e, ok := cur.Employee("E1")
				So(ok, ShouldBeTrue)
				So(e.Name, ShouldEqual, "Ann")
				_, ok = cur.Employee("E2")
				So(ok, ShouldBeFalse)

				team, ok := cur.Team("Sales")
				So(ok, ShouldBeTrue)
				So(team.BonusPool, ShouldEqual, 100)
				_, ok = cur.Team("Ops")
				So(ok, ShouldBeFalse)
			})

			Convey("Then a later publish replaces it wholesale", func() {
				_, err := s.Publish(ctx, sampleGraph("Ops"))
				So(err, ShouldBeNil)
				cur, _ := s.Current(ctx)
				So(cur.Version, ShouldEqual, 2)
				_, ok := cur.Team("Sales")
				So(ok, ShouldBeFalse)

				_, ok = snap.Team("Sales")
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When publishing nil", func() {
			_, err := s.Publish(ctx, nil)
			So(errors.Is(err, ErrNilGraph), ShouldBeTrue)
			So(s.Version(), ShouldEqual, 0)
		})

		Convey("When readers race a publisher", func() {
			_, _ = s.Publish(ctx, sampleGraph("Sales"))
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					_, _ = s.Publish(ctx, sampleGraph("Ops"))
				}()
				go func() {
					defer wg.Done()
					cur, err := s.Current(ctx)
					if err == nil && len(cur.Graph.Teams) != 1 {
						t.Error("partial graph observed")
					}
				}()
			}
			wg.Wait()
			So(s.Version(), ShouldEqual, 9)
		})
	})
}
