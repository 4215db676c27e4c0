package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/olrank/internal/adapters/repository"
	"github.com/okian/olrank/internal/domain/model"
	"github.com/okian/olrank/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

type fakeTiming struct {
	events      map[int][]model.TimingEvent
	classes     map[int64][]model.TimingClass
	runners     map[string][]model.TimingRunner
	failClasses map[int64]bool
	onClasses   func(eventID int64)

	years      []int
	classCalls map[int64]int
}

func newFakeTiming() *fakeTiming {
	return &fakeTiming{
		events:      make(map[int][]model.TimingEvent),
		classes:     make(map[int64][]model.TimingClass),
		runners:     make(map[string][]model.TimingRunner),
		failClasses: make(map[int64]bool),
		classCalls:  make(map[int64]int),
	}
}

func (f *fakeTiming) Events(_ context.Context, year int) ([]model.TimingEvent, error) {
	f.years = append(f.years, year)
	return f.events[year], nil
}

func (f *fakeTiming) Classes(_ context.Context, eventID int64) ([]model.TimingClass, error) {
	f.classCalls[eventID]++
	if f.onClasses != nil {
		f.onClasses(eventID)
	}
	if f.failClasses[eventID] {
		return nil, errors.New("connection reset")
	}
	return f.classes[eventID], nil
}

func (f *fakeTiming) Runners(_ context.Context, eventID int64, classID string) ([]model.TimingRunner, int, error) {
	return f.runners[fmt.Sprintf("%d/%s", eventID, classID)], 0, nil
}

func (f *fakeTiming) EventURL(eventID int64) string {
	return fmt.Sprintf("https://timing.example/event/%d", eventID)
}

type fixture struct {
	store *repository.FileStore
	dir   string
}

func newFixture(t *testing.T) *fixture {
	dir := t.TempDir()
	rankings := filepath.Join(dir, "rankings")
	if err := os.MkdirAll(rankings, 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(path, body string) {
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write(filepath.Join(rankings, "elite_forest_M21E.json"), `[
		{"rank":1,"name":"山田太郎","club":"京大OLC","totalPoints":120,"isActive":true,
		 "events":[{"event_name":"2024-04-01 春季大会","points":100},{"event_name":"2024-04-01 春季大会","points":100}]},
		{"rank":2,"name":"佐藤花子","club":"東京大学","totalPoints":90,"isActive":false,"events":[]}
	]`)
	write(filepath.Join(rankings, "elite_sprint_M21E.json"), `[
		{"rank":2,"name":"山田太郎","club":"京都大学","totalPoints":80,"isActive":true,
		 "events":[{"event_name":"2024-05-01 スプリント大会","points":80}]}
	]`)
	write(filepath.Join(rankings, "age_forest_M20.json"), `not json`)
	write(filepath.Join(dir, "events.json"), `[
		{"joe_event_id":1,"name":"第30回春季OL大会","date":"2024-04-01","prefecture":"京都府","entry_status":"closed","tags":[],"joe_url":"https://joe.example/1"},
		{"joe_event_id":2,"name":"未定の大会","date":"","prefecture":"","entry_status":"","tags":[],"joe_url":"https://joe.example/2"}
	]`)
	return &fixture{
		store: repository.NewFileStore(rankings, filepath.Join(dir, "events.json"), filepath.Join(dir, "out")),
		dir:   dir,
	}
}

func fixedClock() time.Time {
	return time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
}

func TestBuildIndex(t *testing.T) {
	Convey("Given standings for one athlete in forest and sprint", t, func() {
		f := newFixture(t)
		svc := New(f.store, WithClock(fixedClock))
		ctx := context.Background()

		Convey("When the index is built", func() {
			rep, err := svc.BuildIndex(ctx)
			So(err, ShouldBeNil)

			Convey("Then the unreadable category is skipped and the rest processed", func() {
				So(rep.Stage, ShouldEqual, StageBuildIndex)
				So(rep.RunID, ShouldNotBeEmpty)
				So(rep.Processed, ShouldEqual, 2)
				So(rep.Skipped, ShouldEqual, 1)
			})

			Convey("Then the athlete is classified from best points", func() {
				doc, err := f.store.LoadAthleteIndex(ctx)
				So(err, ShouldBeNil)
				So(doc.SchemaVersion, ShouldEqual, model.SchemaVersion)
				So(doc.GeneratedAt.Equal(fixedClock()), ShouldBeTrue)
				a := doc.Athletes["山田太郎"]
				So(a, ShouldNotBeNil)
				So(a.Type, ShouldEqual, model.TypeForester)
				So(a.ForestCount, ShouldEqual, 1)
				So(a.SprintCount, ShouldEqual, 1)
				So(a.Clubs, ShouldResemble, []string{"京都大学"})
			})

			Convey("Then club aliases collapse into one club", func() {
				doc, err := f.store.LoadClubStats(ctx)
				So(err, ShouldBeNil)
				So(doc.Clubs, ShouldContainKey, "京都大学")
				So(doc.Clubs, ShouldNotContainKey, "京大OLC")
				So(doc.Clubs["京都大学"].MemberCount, ShouldEqual, 1)
			})

			Convey("Then stats report the index and the run", func() {
				stats := svc.GetStats()
				So(stats["athletes"], ShouldEqual, 2)
				So(stats["clubs"], ShouldEqual, 2)
				reports, ok := stats["stages"].(map[string]Report)
				So(ok, ShouldBeTrue)
				So(reports, ShouldContainKey, StageBuildIndex)
			})
		})

		Convey("When the rankings directory is missing", func() {
			store := repository.NewFileStore(filepath.Join(f.dir, "nope"), filepath.Join(f.dir, "events.json"), filepath.Join(f.dir, "out"))
			_, err := New(store).BuildIndex(ctx)

			Convey("Then the stage fails", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestLinkEvents(t *testing.T) {
	Convey("Given events and a timing source listing the same event", t, func() {
		f := newFixture(t)
		ft := newFakeTiming()
		ft.events[2024] = []model.TimingEvent{
			{EventID: 77, Name: "春季OL大会2024", Date: "2024-04-01"},
		}
		svc := New(f.store, WithTimingSource(ft), WithClock(fixedClock))
		ctx := context.Background()

		Convey("When events are linked", func() {
			rep, err := svc.LinkEvents(ctx)
			So(err, ShouldBeNil)

			Convey("Then only years of dated unlinked events are fetched", func() {
				So(ft.years, ShouldResemble, []int{2024})
			})

			Convey("Then the matched event carries the id and url", func() {
				So(rep.Processed, ShouldEqual, 1)
				events, err := f.store.LoadEvents(ctx)
				So(err, ShouldBeNil)
				So(*events[0].LapcenterEventID, ShouldEqual, int64(77))
				So(*events[0].LapcenterURL, ShouldEqual, "https://timing.example/event/77")
				So(events[1].Linked(), ShouldBeFalse)
			})

			Convey("Then a second run has nothing left to fetch", func() {
				ft.years = nil
				rep, err := svc.LinkEvents(ctx)
				So(err, ShouldBeNil)
				So(rep.Processed, ShouldEqual, 0)
				So(ft.years, ShouldBeEmpty)
			})
		})

		Convey("When no timing source is configured", func() {
			_, err := New(f.store).LinkEvents(ctx)
			So(errors.Is(err, ErrNoTimingSource), ShouldBeTrue)
		})
	})
}

func TestScrapeTiming(t *testing.T) {
	Convey("Given a built index and a linked past event", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		ft := newFakeTiming()
		ft.events[2024] = []model.TimingEvent{{EventID: 77, Name: "春季OL大会2024", Date: "2024-04-01"}}
		ft.classes[77] = []model.TimingClass{{ID: "1", Name: "M21E"}}
		ft.runners["77/1"] = []model.TimingRunner{
			{Name: "山田　太郎", Club: "京大OLC", Rank: 1, Speed: 96.5, MissRate: 4.2},
			{Name: "Guest Runner", Club: "", Rank: 2, Speed: 80, MissRate: 10},
		}
		svc := New(f.store, WithTimingSource(ft), WithClock(fixedClock), WithFlushEvery(1))
		_, err := svc.BuildIndex(ctx)
		So(err, ShouldBeNil)
		_, err = svc.LinkEvents(ctx)
		So(err, ShouldBeNil)

		Convey("When timing records are scraped", func() {
			rep, err := svc.ScrapeTiming(ctx, 0)
			So(err, ShouldBeNil)
			So(rep.Processed, ShouldEqual, 1)

			Convey("Then runners are mapped onto index athletes", func() {
				doc, err := f.store.LoadTiming(ctx)
				So(err, ShouldBeNil)
				So(doc.Athletes, ShouldHaveLength, 1)
				recs := doc.Athletes["山田太郎"]
				So(recs, ShouldHaveLength, 1)
				So(recs[0].Date, ShouldEqual, "2024-04-01")
				So(recs[0].EventName, ShouldEqual, "第30回春季OL大会")
				So(recs[0].ClassName, ShouldEqual, "M21E")
				So(recs[0].Speed, ShouldEqual, 96.5)
			})

			Convey("Then a second run resumes without refetching", func() {
				rep, err := svc.ScrapeTiming(ctx, 0)
				So(err, ShouldBeNil)
				So(rep.Processed, ShouldEqual, 0)
				So(ft.classCalls[77], ShouldEqual, 1)
			})

			Convey("Then the profile splits timing by discipline", func() {
				p, err := svc.AthleteProfile(ctx, "山田太郎")
				So(err, ShouldBeNil)
				So(p.History, ShouldHaveLength, 2)
				So(p.History[0].Events, ShouldHaveLength, 1)
				So(p.EventCount, ShouldEqual, 2)
				So(p.Timing, ShouldNotBeNil)
				So(p.Timing.Forest, ShouldHaveLength, 1)
				So(p.Timing.Sprint, ShouldBeEmpty)
			})
		})

		Convey("When fetching the event fails", func() {
			ft.failClasses[77] = true
			rep, err := svc.ScrapeTiming(ctx, 0)

			Convey("Then the event is skipped and retried by the next run", func() {
				So(err, ShouldBeNil)
				So(rep.Skipped, ShouldEqual, 1)
				ft.failClasses[77] = false
				rep, err = svc.ScrapeTiming(ctx, 0)
				So(err, ShouldBeNil)
				So(rep.Processed, ShouldEqual, 1)
				So(ft.classCalls[77], ShouldEqual, 2)
			})
		})

		Convey("When the clock is before the event", func() {
			early := New(f.store, WithTimingSource(ft), WithClock(func() time.Time {
				return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
			}))
			rep, err := early.ScrapeTiming(ctx, 0)

			Convey("Then nothing is fetched", func() {
				So(err, ShouldBeNil)
				So(rep.Processed, ShouldEqual, 0)
				So(ft.classCalls, ShouldBeEmpty)
			})
		})
	})
}

// seedLinkedEvents replaces the events file with one linked event per id,
// a month apart in 2024, and registers one class with one runner for each.
func seedLinkedEvents(ctx context.Context, f *fixture, ft *fakeTiming, ids ...int64) {
	events := make([]model.Event, 0, len(ids))
	for i, id := range ids {
		ev := model.Event{
			JOEEventID: int64(i + 1),
			Name:       fmt.Sprintf("練習会%d", id),
			Date:       fmt.Sprintf("2024-%02d-01", i+3),
			Tags:       []string{},
		}
		ev.Link(id)
		events = append(events, ev)
		ft.classes[id] = []model.TimingClass{{ID: "1", Name: "M21E"}}
		ft.runners[fmt.Sprintf("%d/1", id)] = []model.TimingRunner{
			{Name: "山田 太郎", Rank: 1, Speed: 90, MissRate: 5},
		}
	}
	So(f.store.SaveEvents(ctx, events), ShouldBeNil)
}

func TestScrapeTimingBatches(t *testing.T) {
	Convey("Given a built index and several linked past events", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		ft := newFakeTiming()
		seedLinkedEvents(ctx, f, ft, 101, 102, 103)
		_, err := New(f.store, WithClock(fixedClock)).BuildIndex(ctx)
		So(err, ShouldBeNil)

		Convey("When a run is capped at one event", func() {
			svc := New(f.store, WithTimingSource(ft), WithClock(fixedClock))
			rep, err := svc.ScrapeTiming(ctx, 1)
			So(err, ShouldBeNil)

			Convey("Then only the first event is fetched", func() {
				So(rep.Processed, ShouldEqual, 1)
				So(ft.classCalls[101], ShouldEqual, 1)
				So(ft.classCalls[102], ShouldEqual, 0)
				doc, err := f.store.LoadTiming(ctx)
				So(err, ShouldBeNil)
				So(doc.Athletes["山田太郎"], ShouldHaveLength, 1)
			})

			Convey("Then the next capped run picks up the second event", func() {
				rep, err := svc.ScrapeTiming(ctx, 1)
				So(err, ShouldBeNil)
				So(rep.Processed, ShouldEqual, 1)
				So(ft.classCalls[101], ShouldEqual, 1)
				So(ft.classCalls[102], ShouldEqual, 1)
				So(ft.classCalls[103], ShouldEqual, 0)
				doc, err := f.store.LoadTiming(ctx)
				So(err, ShouldBeNil)
				So(doc.Athletes["山田太郎"], ShouldHaveLength, 2)
			})
		})

		Convey("When the configured event limit applies", func() {
			svc := New(f.store, WithTimingSource(ft), WithClock(fixedClock), WithEventLimit(2))
			rep, err := svc.ScrapeTiming(ctx, 0)
			So(err, ShouldBeNil)
			So(rep.Processed, ShouldEqual, 2)
			So(ft.classCalls[103], ShouldEqual, 0)
		})

		Convey("When the third event fails after two successes with a checkpoint every two", func() {
			ft.failClasses[103] = true
			onDisk := -1
			ft.onClasses = func(id int64) {
				if id != 103 {
					return
				}
				doc, err := f.store.LoadTiming(ctx)
				if err == nil {
					onDisk = len(doc.Athletes["山田太郎"])
				}
			}
			svc := New(f.store, WithTimingSource(ft), WithClock(fixedClock), WithFlushEvery(2))
			rep, err := svc.ScrapeTiming(ctx, 0)

			Convey("Then the first two events were written before the failing fetch", func() {
				So(err, ShouldBeNil)
				So(rep.Processed, ShouldEqual, 2)
				So(rep.Skipped, ShouldEqual, 1)
				So(onDisk, ShouldEqual, 2)
			})
		})

		Convey("When the checkpoint interval is larger than the run", func() {
			onDisk := -1
			ft.onClasses = func(id int64) {
				if id != 103 {
					return
				}
				doc, err := f.store.LoadTiming(ctx)
				if err == nil {
					onDisk = len(doc.Athletes["山田太郎"])
				}
			}
			svc := New(f.store, WithTimingSource(ft), WithClock(fixedClock), WithFlushEvery(10))
			_, err := svc.ScrapeTiming(ctx, 0)

			Convey("Then nothing is written until the run ends", func() {
				So(err, ShouldBeNil)
				So(onDisk, ShouldEqual, 0)
				doc, err := f.store.LoadTiming(ctx)
				So(err, ShouldBeNil)
				So(doc.Athletes["山田太郎"], ShouldHaveLength, 3)
			})
		})
	})
}

func TestLookups(t *testing.T) {
	Convey("Given a built index", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		svc := New(f.store, WithClock(fixedClock))
		_, err := svc.BuildIndex(ctx)
		So(err, ShouldBeNil)

		Convey("When a profile has no timing records", func() {
			p, err := svc.AthleteProfile(ctx, "佐藤花子")
			So(err, ShouldBeNil)
			So(p.Timing, ShouldBeNil)
			So(p.EventCount, ShouldEqual, 0)
			So(p.Consistency, ShouldEqual, 0)
		})

		Convey("When the athlete is unknown", func() {
			_, err := svc.AthleteProfile(ctx, "誰か")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a club is looked up by alias", func() {
			c, err := svc.Club(ctx, "京大OLC")
			So(err, ShouldBeNil)
			So(c.Name, ShouldEqual, "京都大学")
		})

		Convey("When an unknown club is looked up", func() {
			_, err := svc.Club(ctx, "存在しない")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When top clubs are requested", func() {
			clubs, err := svc.TopClubs(ctx, 1)
			So(err, ShouldBeNil)
			So(clubs, ShouldHaveLength, 1)
			So(clubs[0].Name, ShouldEqual, "京都大学")
		})

		Convey("When a fresh service reads the artifacts from disk", func() {
			fresh := New(f.store)
			c, err := fresh.Club(ctx, "東京大学")
			So(err, ShouldBeNil)
			So(c.MemberCount, ShouldEqual, 1)
		})
	})
}
