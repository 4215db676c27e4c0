package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	convey.Convey("Given a data directory with one category", t, func() {
		dir := t.TempDir()
		rankings := filepath.Join(dir, "rankings")
		convey.So(os.MkdirAll(rankings, 0o755), convey.ShouldBeNil)
		convey.So(os.WriteFile(filepath.Join(rankings, "elite_forest_W21E.json"), []byte(`[
			{"rank":1,"name":"鈴木一花","club":"東大OLK","totalPoints":110,"isActive":true,
			 "events":[{"event_name":"2024-06-02 関東大会","points":110}]}
		]`), 0o600), convey.ShouldBeNil)

		t.Setenv("OLRANK_ENV_FILE", filepath.Join(dir, "missing.env"))
		t.Setenv("OLRANK_CONFIG", "")
		t.Setenv("OLRANK_RANKINGS_DIR", rankings)
		t.Setenv("OLRANK_EVENTS_FILE", filepath.Join(dir, "events.json"))
		t.Setenv("OLRANK_OUTPUT_DIR", filepath.Join(dir, "out"))
		t.Setenv("OLRANK_LOG_LEVEL", "error")
		ctx := context.Background()
		var out bytes.Buffer

		convey.Convey("When no command is given", func() {
			err := run(ctx, nil, &out)
			convey.So(errors.Is(err, errUsage), convey.ShouldBeTrue)
		})

		convey.Convey("When the command is unknown", func() {
			err := run(ctx, []string{"rebuild"}, &out)
			convey.So(errors.Is(err, errUsage), convey.ShouldBeTrue)
		})

		convey.Convey("When scrape-timing gets a negative limit", func() {
			err := run(ctx, []string{"scrape-timing", "-limit", "-1"}, &out)
			convey.So(errors.Is(err, errUsage), convey.ShouldBeTrue)
		})

		convey.Convey("When the index is built and a profile printed", func() {
			convey.So(run(ctx, []string{"build-index"}, &out), convey.ShouldBeNil)
			_, err := os.Stat(filepath.Join(dir, "out", "club-stats.json"))
			convey.So(err, convey.ShouldBeNil)

			err = run(ctx, []string{"profile", "鈴木一花"}, &out)

			convey.Convey("Then the profile is written as JSON", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, `"name": "鈴木一花"`)
				convey.So(out.String(), convey.ShouldContainSubstring, `"東京大学"`)
			})
		})

		convey.Convey("When the profile is unknown", func() {
			convey.So(run(ctx, []string{"build-index"}, &out), convey.ShouldBeNil)
			convey.So(run(ctx, []string{"profile", "誰か"}, &out), convey.ShouldNotBeNil)
		})

		convey.Convey("When link-events runs without an events file", func() {
			err := run(ctx, []string{"link-events"}, &out)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
