package clubname

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given raw club strings", t, func() {
		cases := map[string]string{
			"京大OLC":     "京都大学",
			"京大olc":     "京都大学",
			"京大ＯＬＣ":     "京都大学",
			"京都大学":      "京都大学",
			"東大OLK":     "東京大学",
			"東京大学大学院2":  "東京大学",
			"早稲田大学 54期": "早稲田大学",
			"渋谷 2":      "渋谷",
			"練馬OLクラブ":   "練馬OLC",
			"練馬オリエンテーリングクラブ": "練馬OLC",
			"OLCルーパー":             "ルーパー",
			"  三河OLC  ":           "三河OLC",
			"X 1 2 3 4 5 6 7 8 9": "X",
			"早稲田大学 53期 54期":       "早稲田大学",
			"渋谷 1期 2":             "渋谷",
		}
		for in, want := range cases {
			So(Normalize(in), ShouldEqual, want)
		}
	})

	Convey("Given any club string", t, func() {
		inputs := []string{
			"京大OLC", "京大ＯＬＣ 12", "阪大OLC大学院", "名大olc 3期", "東京大学大学院",
			"朱雀OK", "Ｔｅａｍ　１", "", "-", "ES関東C 5", "慶応義塾大学大学院1",
			"X 1 2 3 4 5 6 7 8 9", "チーム 1 2 3 4 5 6 7 8 9 10", "X 1",
			"名大OLC 1期 2期 3期 4期 5期 6期 7期 8期 9期", "練馬 1期 2 3期 4",
		}

		Convey("Then resolving twice should equal resolving once", func() {
			for _, in := range inputs {
				once := Normalize(in)
				So(Normalize(once), ShouldEqual, once)
			}
		})

		Convey("Then every table value should be a fixpoint", func() {
			for _, v := range aliases {
				So(Normalize(v), ShouldEqual, v)
			}
			for _, v := range unifications {
				So(Normalize(v), ShouldEqual, v)
			}
		})
	})
}

func TestSplit(t *testing.T) {
	Convey("Given multi-club fields", t, func() {
		So(Split("京大OLC/京都大学"), ShouldResemble, []string{"京都大学"})
		So(Split("練馬OLクラブ／ ES関東C"), ShouldResemble, []string{"練馬OLC", "ES関東クラブ"})
		So(Split("-"), ShouldBeEmpty)
		So(Split(""), ShouldBeEmpty)
		So(Split(" / - /"), ShouldBeEmpty)
	})
}
