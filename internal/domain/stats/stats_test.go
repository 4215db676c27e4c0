package stats

import (
	"testing"

	"github.com/okian/olrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func scores(points ...float64) []model.EventScore {
	out := make([]model.EventScore, len(points))
	for i, p := range points {
		out[i] = model.EventScore{Date: "2024-01-" + string(rune('1'+i/9)) + string(rune('1'+i%9)), EventName: "e", Points: p}
	}
	return out
}

func TestParseEntry(t *testing.T) {
	Convey("Given raw event entries", t, func() {
		So(ParseEntry(model.EventEntry{EventName: "2024-05-01 春大会", Points: 60}), ShouldResemble,
			model.EventScore{Date: "2024-05-01", EventName: "春大会", Points: 60})
		So(ParseEntry(model.EventEntry{EventName: "春大会", Points: 10}).Date, ShouldEqual, "")
		So(ParseEntry(model.EventEntry{EventName: "2024-13-40 壊れた日付", Points: 10}).Date, ShouldEqual, "")
		So(ParseEntry(model.EventEntry{EventName: "2024-05-01", Points: 10}).Date, ShouldEqual, "")
	})
}

func TestDedupeEvents(t *testing.T) {
	Convey("Given duplicated and unordered entries", t, func() {
		got := DedupeEvents([]model.EventEntry{
			{EventName: "2024-06-01 夏大会", Points: 70},
			{EventName: "2024-05-01 春大会", Points: 60},
			{EventName: "2024-05-01 春大会", Points: 99},
			{EventName: "日付なし", Points: 5},
		})

		Convey("Then the first occurrence should win and dates should ascend", func() {
			So(got, ShouldHaveLength, 3)
			So(got[0].Date, ShouldEqual, "")
			So(got[1], ShouldResemble, model.EventScore{Date: "2024-05-01", EventName: "春大会", Points: 60})
			So(got[2].EventName, ShouldEqual, "夏大会")
		})
	})
}

func TestConsistency(t *testing.T) {
	Convey("Given event histories", t, func() {
		So(Consistency(nil), ShouldEqual, 0)
		So(Consistency(scores(80)), ShouldEqual, 0)
		So(Consistency(scores(0, 0, 0)), ShouldEqual, 0)
		So(Consistency(scores(50, 50, 50)), ShouldEqual, 100)
		// mean 50, population sd 10, cv 0.2 -> 33.33
		So(Consistency(scores(40, 60)), ShouldEqual, 33)
		So(Consistency(scores(1, 100)), ShouldEqual, 0)

		Convey("Then undated entries should not count", func() {
			events := append(scores(50), model.EventScore{EventName: "x", Points: 1000})
			So(Consistency(events), ShouldEqual, 0)
		})

		Convey("Then the score should stay within bounds", func() {
			for _, pts := range [][]float64{{1, 2, 3}, {10, 1000, 5}, {99.9, 100}, {0, 10}} {
				c := Consistency(scores(pts...))
				So(c, ShouldBeBetweenOrEqual, 0, 100)
			}
		})
	})
}

func TestRecentForm(t *testing.T) {
	Convey("Given event histories", t, func() {
		So(RecentForm(scores(50)), ShouldEqual, 0)
		So(RecentForm(scores(0, 0)), ShouldEqual, 0)

		Convey("When the latest three are above the lifetime average", func() {
			So(RecentForm(scores(10, 10, 10, 50, 60, 70)), ShouldBeGreaterThan, 0)
		})

		Convey("When the latest three are below the lifetime average", func() {
			So(RecentForm(scores(90, 80, 70, 20, 10, 15)), ShouldBeLessThan, 0)
		})

		Convey("When fewer than three events exist", func() {
			// both events form the window, so recent equals lifetime
			So(RecentForm(scores(40, 60)), ShouldEqual, 0)
		})

		Convey("Then the input order should not matter", func() {
			events := scores(10, 10, 10, 50, 60, 70)
			reversed := make([]model.EventScore, len(events))
			for i, e := range events {
				reversed[len(events)-1-i] = e
			}
			So(RecentForm(reversed), ShouldEqual, RecentForm(events))
			// 10,10,10,50,60,70: all 35, recent 60 -> 71.43
			So(RecentForm(events), ShouldEqual, 71)
		})
	})
}

func TestRound(t *testing.T) {
	Convey("Given halves", t, func() {
		So(Round(2.5), ShouldEqual, 3)
		So(Round(-2.5), ShouldEqual, -2)
		So(Round(-0.4), ShouldEqual, 0)
	})
}
