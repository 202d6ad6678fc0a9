package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/joshharrison/critpath/internal/graph"
)

// parseJSON reads {"name": ..., "activities": [{"id", "duration", "after"}]}
// where "after" is either a comma-separated string or an array of ids.
func parseJSON(data []byte) (*Project, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("parsing JSON: invalid document")
	}

	activities := gjson.GetBytes(data, "activities")
	if activities.Exists() && !activities.IsArray() {
		return nil, errors.New("parsing JSON: activities must be an array")
	}

	p := &Project{Name: gjson.GetBytes(data, "name").String()}

	var err error
	activities.ForEach(func(key, item gjson.Result) bool {
		if !item.IsObject() {
			err = fmt.Errorf("activity %d: expected an object", key.Int())
			return false
		}
		dur := item.Get("duration")
		if dur.Exists() && dur.Type != gjson.Number {
			err = fmt.Errorf("activity %q: duration must be a number", item.Get("id").String())
			return false
		}
		p.Rows = append(p.Rows, graph.Row{
			ID:         item.Get("id").String(),
			Duration:   int(dur.Int()),
			Precedence: jsonPrecedence(item.Get("after")),
		})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return p, nil
}

func jsonPrecedence(after gjson.Result) string {
	if !after.IsArray() {
		return after.String()
	}
	var ids []string
	after.ForEach(func(_, id gjson.Result) bool {
		ids = append(ids, id.String())
		return true
	})
	return strings.Join(ids, ",")
}
