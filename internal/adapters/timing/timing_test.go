package timing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/net/html"

	"github.com/okian/olrank/internal/domain/model"
)

const eventsPage = `<html><body><table>
<tr><th>日付</th><th>大会名</th></tr>
<tr><td>2024/5/1</td><td><a href="lapcombat2/index.jsp?event=8001">春季OL大会2024</a></td></tr>
<tr><td>2024-06-02</td><td><a href="lapcombat2/index.jsp?event=8002">関東スプリント</a></td></tr>
<tr><td>未定</td><td><a href="lapcombat2/index.jsp?event=8003">日付なし</a></td></tr>
<tr><td>2024/6/2</td><td><a href="lapcombat2/index.jsp?event=8002">重複</a></td></tr>
</table></body></html>`

const classesPage = `<html><body><ul>
<li><a href="split-list.jsp?event=8001&class=1">M21A</a></li>
<li><a href="split-list.jsp?event=8001&class=2">W21A</a></li>
<li><a href="split-list.jsp?event=8001&class=1">M21A</a></li>
<li><a href="/">top</a></li>
</ul></body></html>`

const runnersPage = `<html><body>
<table><tr><td>layout</td></tr></table>
<table>
<tr><th>順位</th><th>氏名</th><th>所属</th><th>記録</th><th>巡航速度</th><th>ミス率</th></tr>
<tr><td>1</td><td>田中 太郎</td><td>京大OLC</td><td>45:12</td><td>104.5%</td><td>3.2%</td></tr>
<tr><td>2</td><td>佐藤花子</td><td>練馬OLC</td><td>47:00</td><td>99.1</td><td>8</td></tr>
<tr><td>-</td><td>山田一郎</td><td>-</td><td>DISQ</td><td>-</td><td>-</td></tr>
</table></body></html>`

func newServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/index.jsp":
			if r.URL.Query().Get("year") != "2024" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(eventsPage))
		case "/lapcombat2/index.jsp":
			_, _ = w.Write([]byte(classesPage))
		case "/lapcombat2/split-list.jsp":
			if r.Header.Get("User-Agent") != "olrank-test" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte(runnersPage))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
}

func TestClient(t *testing.T) {
	Convey("Given a timing-source server", t, func() {
		ctx := context.Background()
		hits := 0
		srv := newServer(t, &hits)
		defer srv.Close()

		c, err := NewClient(srv.URL+"/", WithDelay(0), WithUserAgent("olrank-test"), WithTimeout(time.Second))
		So(err, ShouldBeNil)

		Convey("When listing events of a year", func() {
			events, err := c.Events(ctx, 2024)

			Convey("Then dated rows with an event link should be returned once", func() {
				So(err, ShouldBeNil)
				So(events, ShouldResemble, []model.TimingEvent{
					{EventID: 8001, Name: "春季OL大会2024", Date: "2024-05-01"},
					{EventID: 8002, Name: "関東スプリント", Date: "2024-06-02"},
				})
			})
		})

		Convey("When listing classes", func() {
			classes, err := c.Classes(ctx, 8001)
			So(err, ShouldBeNil)
			So(classes, ShouldResemble, []model.TimingClass{{ID: "1", Name: "M21A"}, {ID: "2", Name: "W21A"}})
		})

		Convey("When listing runners", func() {
			runners, skipped, err := c.Runners(ctx, 8001, "1")

			Convey("Then numeric rows should be parsed and the rest skipped", func() {
				So(err, ShouldBeNil)
				So(skipped, ShouldEqual, 1)
				So(runners, ShouldHaveLength, 2)
				So(runners[0], ShouldResemble, model.TimingRunner{
					Name: "田中 太郎", Club: "京大OLC", Rank: 1, Result: "45:12", Speed: 104.5, MissRate: 3.2,
				})
				So(runners[1].MissRate, ShouldEqual, 8)
			})
		})

		Convey("When the server answers with an error status", func() {
			_, err := c.Events(ctx, 1999)
			So(errors.Is(err, ErrFetch), ShouldBeTrue)
		})

		Convey("When the context is already cancelled", func() {
			slow, err := NewClient(srv.URL+"/", WithDelay(time.Hour))
			So(err, ShouldBeNil)
			_, _ = slow.Events(ctx, 2024)

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			before := hits
			_, err = slow.Events(cctx, 2024)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(hits, ShouldEqual, before)
		})

		Convey("Then event urls should point at the class list", func() {
			So(c.EventURL(8001), ShouldEqual, srv.URL+"/lapcombat2/index.jsp?event=8001")
		})
	})

	Convey("Given an invalid base url", t, func() {
		_, err := NewClient("not a url")
		So(errors.Is(err, ErrInvalidURL), ShouldBeTrue)
	})
}

func TestParsing(t *testing.T) {
	Convey("Given page fragments", t, func() {
		Convey("Then dates should be normalized", func() {
			d, ok := normalizeDate("2024年5月1日(水)")
			So(ok, ShouldBeTrue)
			So(d, ShouldEqual, "2024-05-01")
			_, ok = normalizeDate("2024/13/01")
			So(ok, ShouldBeFalse)
		})

		Convey("Then a page without a runner table should yield nothing", func() {
			runners, skipped := parseRunners(mustParse(`<table><tr><th>氏名</th><th>記録</th></tr><tr><td>a</td><td>1</td></tr></table>`))
			So(runners, ShouldBeEmpty)
			So(skipped, ShouldEqual, 0)
		})

		Convey("Then disciplines should follow name keywords", func() {
			So(DisciplineOf("関東スプリント選手権"), ShouldEqual, model.Sprint)
			So(DisciplineOf("Tokyo ＳＰＲＩＮＴ"), ShouldEqual, model.Sprint)
			So(DisciplineOf("春季ミドル大会"), ShouldEqual, model.Forest)
		})
	})
}

func mustParse(s string) *html.Node {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return doc
}

func TestPacer(t *testing.T) {
	Convey("Given a pacer with a short delay", t, func() {
		const delay = 30 * time.Millisecond
		p := &pacer{delay: delay}
		ctx := context.Background()

		Convey("When two requests wait back to back", func() {
			before := time.Now()
			So(p.Wait(ctx), ShouldBeNil)
			So(p.Wait(ctx), ShouldBeNil)

			Convey("Then the second starts at least the delay after the first", func() {
				So(time.Since(before), ShouldBeGreaterThanOrEqualTo, delay)
				So(p.last.Sub(before), ShouldBeGreaterThanOrEqualTo, delay)
			})
		})

		Convey("When the context ends during the second wait", func() {
			p.delay = time.Hour
			So(p.Wait(ctx), ShouldBeNil)
			cctx, cancel := context.WithCancel(ctx)
			go func() {
				time.Sleep(10 * time.Millisecond)
				cancel()
			}()
			start := time.Now()
			err := p.Wait(cctx)

			Convey("Then the wait returns the context error promptly", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(time.Since(start), ShouldBeLessThan, time.Second)
			})
		})

		Convey("When the first request waits", func() {
			p.delay = time.Hour
			start := time.Now()

			Convey("Then it does not wait at all", func() {
				So(p.Wait(ctx), ShouldBeNil)
				So(time.Since(start), ShouldBeLessThan, time.Second)
			})
		})
	})
}
