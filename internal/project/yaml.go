package project

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshharrison/critpath/internal/graph"
)

type yamlProject struct {
	Name       string         `yaml:"name,omitempty"`
	Activities []yamlActivity `yaml:"activities"`
}

type yamlActivity struct {
	ID       string     `yaml:"id"`
	Duration int        `yaml:"duration"`
	After    precedence `yaml:"after"`
}

// precedence accepts either "A,B" or a sequence of ids.
type precedence string

func (p *precedence) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*p = precedence(node.Value)
		return nil
	case yaml.SequenceNode:
		ids := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: predecessor must be a scalar id", item.Line)
			}
			ids = append(ids, item.Value)
		}
		*p = precedence(strings.Join(ids, ","))
		return nil
	default:
		return fmt.Errorf("line %d: after must be a string or a list of ids", node.Line)
	}
}

func parseYAML(data []byte) (*Project, error) {
	var yp yamlProject
	if err := yaml.Unmarshal(data, &yp); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	p := &Project{Name: yp.Name, Rows: make([]graph.Row, 0, len(yp.Activities))}
	for _, a := range yp.Activities {
		p.Rows = append(p.Rows, graph.Row{ID: a.ID, Duration: a.Duration, Precedence: string(a.After)})
	}
	return p, nil
}

// EncodeYAML renders a project in the YAML layout accepted by Load.
func EncodeYAML(p *Project) ([]byte, error) {
	yp := yamlProject{Name: p.Name, Activities: make([]yamlActivity, 0, len(p.Rows))}
	for _, r := range p.Rows {
		after := r.Precedence
		if after == "" {
			after = graph.NoPredecessors
		}
		yp.Activities = append(yp.Activities, yamlActivity{ID: r.ID, Duration: r.Duration, After: precedence(after)})
	}
	return yaml.Marshal(yp)
}
