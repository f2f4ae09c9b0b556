package breach

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/breachnotifier/breach-notifier/internal/api"
)

// HIBP descriptions are HTML with links and emphasis. Terminal output gets
// them stripped to text.
var textPolicy = bluemonday.StrictPolicy()

// PlainText strips every tag from s, decodes entities and collapses whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(textPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

func fromHIBP(breaches []api.Breach) []Breach {
	out := make([]Breach, 0, len(breaches))
	for _, b := range breaches {
		out = append(out, Breach{
			Name:        b.Name,
			Title:       b.Title,
			Domain:      b.Domain,
			BreachDate:  b.BreachDate,
			PwnCount:    b.PwnCount,
			Description: PlainText(b.Description),
			DataClasses: b.DataClasses,
			IsVerified:  b.IsVerified,
			IsSensitive: b.IsSensitive,
			IsSpamList:  b.IsSpamList,
		})
	}
	return out
}

// fromLeakCheck maps LeakCheck sources to breaches. LeakCheck reports the
// exposed fields once per lookup, so every source carries the same list.
func fromLeakCheck(res *api.LeakCheckResult) []Breach {
	out := make([]Breach, 0, len(res.Sources))
	for _, s := range res.Sources {
		out = append(out, Breach{
			Name:        s.Name,
			Title:       s.Name,
			BreachDate:  s.Date,
			DataClasses: res.Fields,
		})
	}
	if len(out) == 0 && res.Found > 0 {
		out = append(out, Breach{Name: "Unknown source", DataClasses: res.Fields})
	}
	return out
}
