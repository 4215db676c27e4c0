package timing

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/okian/olrank/internal/domain/model"
)

type cell struct {
	text string
	href string
}

type row struct {
	cells  []cell
	header bool
}

var datePattern = regexp.MustCompile(`(\d{4})[/\-.年](\d{1,2})[/\-.月](\d{1,2})`)

// normalizeDate converts 2024/5/1 style dates to 2024-05-01.
func normalizeDate(s string) (string, bool) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	return fmt.Sprintf("%s-%02d-%02d", m[1], month, day), true
}

// tables returns the rows of every table in document order.
func tables(doc *html.Node) [][]row {
	var out [][]row
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			out = append(out, tableRows(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func tableRows(table *html.Node) []row {
	var rows []row
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Table:
				if n != table {
					return
				}
			case atom.Tr:
				rows = append(rows, readRow(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

func readRow(tr *html.Node) row {
	var r row
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		if c.DataAtom == atom.Th {
			r.header = true
		}
		r.cells = append(r.cells, cell{text: nodeText(c), href: firstHref(c)})
	}
	return r
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func firstHref(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		for _, a := range n.Attr {
			if a.Key == "href" {
				return a.Val
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if h := firstHref(c); h != "" {
			return h
		}
	}
	return ""
}

// anchors returns every link of the document as (text, href) pairs.
func anchors(doc *html.Node) []cell {
	var out []cell
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, a := range n.Attr {
				if a.Key == "href" {
					out = append(out, cell{text: nodeText(n), href: a.Val})
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func queryParam(href, key string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}

// parseEvents reads rows holding a date cell and a link carrying an event id.
func parseEvents(doc *html.Node) []model.TimingEvent {
	var out []model.TimingEvent
	seen := make(map[int64]struct{})
	for _, t := range tables(doc) {
		for _, r := range t {
			ev, ok := eventFromRow(r)
			if !ok {
				continue
			}
			if _, dup := seen[ev.EventID]; dup {
				continue
			}
			seen[ev.EventID] = struct{}{}
			out = append(out, ev)
		}
	}
	return out
}

func eventFromRow(r row) (model.TimingEvent, bool) {
	var ev model.TimingEvent
	for _, c := range r.cells {
		if ev.Date == "" {
			if d, ok := normalizeDate(c.text); ok {
				ev.Date = d
				continue
			}
		}
		if ev.EventID == 0 && c.href != "" {
			id, err := strconv.ParseInt(queryParam(c.href, "event"), 10, 64)
			if err == nil && id > 0 {
				ev.EventID = id
				ev.Name = c.text
			}
		}
	}
	return ev, ev.EventID != 0 && ev.Date != "" && ev.Name != ""
}

// parseClasses collects links carrying a class parameter.
func parseClasses(doc *html.Node) []model.TimingClass {
	var out []model.TimingClass
	seen := make(map[string]struct{})
	for _, a := range anchors(doc) {
		id := queryParam(a.href, "class")
		if id == "" || a.text == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, model.TimingClass{ID: id, Name: a.text})
	}
	return out
}

type column int

const (
	colRank column = iota
	colName
	colClub
	colResult
	colSpeed
	colMiss
	colCount
)

// headerKeywords is checked in order; the first matching column claims a header cell.
var headerKeywords = []struct { //nolint:gochecknoglobals // header vocabulary
	col      column
	keywords []string
}{
	{colMiss, []string{"ミス率", "miss"}},
	{colSpeed, []string{"巡航速度", "速度", "speed"}},
	{colRank, []string{"順位", "rank"}},
	{colName, []string{"氏名", "選手名", "名前", "name"}},
	{colClub, []string{"所属", "club"}},
	{colResult, []string{"記録", "タイム", "result", "time"}},
}

func headerColumns(r row) ([colCount]int, bool) {
	var idx [colCount]int
	for i := range idx {
		idx[i] = -1
	}
	for i, c := range r.cells {
		label := strings.ToLower(c.text)
	next:
		for _, h := range headerKeywords {
			if idx[h.col] != -1 {
				continue
			}
			for _, kw := range h.keywords {
				if strings.Contains(label, kw) {
					idx[h.col] = i
					break next
				}
			}
		}
	}
	return idx, idx[colName] != -1 && idx[colSpeed] != -1 && idx[colMiss] != -1
}

// parseRunners reads the first table whose header names the runner, speed
// and miss-rate columns. Rows without numeric speed or miss rate are skipped.
func parseRunners(doc *html.Node) ([]model.TimingRunner, int) {
	for _, t := range tables(doc) {
		for i, r := range t {
			idx, ok := headerColumns(r)
			if !ok {
				continue
			}
			return runnersFrom(t[i+1:], idx)
		}
	}
	return nil, 0
}

func runnersFrom(rows []row, idx [colCount]int) ([]model.TimingRunner, int) {
	var (
		out     []model.TimingRunner
		skipped int
	)
	get := func(r row, col column) string {
		i := idx[col]
		if i < 0 || i >= len(r.cells) {
			return ""
		}
		return r.cells[i].text
	}
	for _, r := range rows {
		if r.header {
			continue
		}
		name := get(r, colName)
		speed, errSpeed := parsePercent(get(r, colSpeed))
		miss, errMiss := parsePercent(get(r, colMiss))
		if name == "" || errSpeed != nil || errMiss != nil {
			skipped++
			continue
		}
		rank, _ := strconv.Atoi(strings.TrimSuffix(get(r, colRank), "位"))
		out = append(out, model.TimingRunner{
			Name:     name,
			Club:     get(r, colClub),
			Rank:     rank,
			Result:   get(r, colResult),
			Speed:    speed,
			MissRate: miss,
		})
	}
	return out, skipped
}

func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, fmt.Errorf("%w: empty number", ErrParse)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return v, nil
}
