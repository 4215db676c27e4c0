package timing

import (
	"strings"

	"github.com/okian/olrank/internal/domain/model"
	"github.com/okian/olrank/internal/domain/text"
)

var sprintKeywords = []string{"スプリント", "sprint", "パーク", "park", "市街地", "キャンパス", "campus"} //nolint:gochecknoglobals // keyword table

// DisciplineOf tags an event from keywords in its name. Names without a
// sprint keyword are treated as forest events.
func DisciplineOf(eventName string) model.Discipline {
	name := strings.ToLower(text.FoldWidth(eventName))
	for _, kw := range sprintKeywords {
		if strings.Contains(name, kw) {
			return model.Sprint
		}
	}
	return model.Forest
}
