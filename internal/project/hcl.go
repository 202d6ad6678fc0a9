package project

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/joshharrison/critpath/internal/graph"
)

// hclProject is the top-level structure of an HCL project file:
//
//	name = "release"
//	activity "build" {
//	  duration = 3
//	  after    = ["design"]
//	}
type hclProject struct {
	Name       string        `hcl:"name,optional"`
	Activities []hclActivity `hcl:"activity,block"`
}

type hclActivity struct {
	ID       string         `hcl:"id,label"`
	Duration int            `hcl:"duration"`
	After    hcl.Expression `hcl:"after,optional"`
}

func parseHCL(data []byte, filename string) (*Project, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing HCL: %s", diags.Error())
	}

	var hp hclProject
	if diags := gohcl.DecodeBody(file.Body, nil, &hp); diags.HasErrors() {
		return nil, fmt.Errorf("decoding HCL: %s", diags.Error())
	}

	p := &Project{Name: hp.Name, Rows: make([]graph.Row, 0, len(hp.Activities))}
	for _, a := range hp.Activities {
		after, err := hclPrecedence(a.After)
		if err != nil {
			return nil, fmt.Errorf("activity %q: %w", a.ID, err)
		}
		p.Rows = append(p.Rows, graph.Row{ID: a.ID, Duration: a.Duration, Precedence: after})
	}
	return p, nil
}

// hclPrecedence accepts a string ("a,b") or a list/tuple of strings.
func hclPrecedence(expr hcl.Expression) (string, error) {
	if expr == nil {
		return "", nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", fmt.Errorf("evaluating after: %s", diags.Error())
	}
	if val.IsNull() {
		return "", nil
	}
	if !val.IsWhollyKnown() {
		return "", fmt.Errorf("after must be known at parse time")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var ids []string
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			if v.IsNull() || v.Type() != cty.String {
				return "", fmt.Errorf("after entries must be strings")
			}
			ids = append(ids, v.AsString())
		}
		return strings.Join(ids, ","), nil
	default:
		return "", fmt.Errorf("after must be a string or a list of strings, got %s", ty.FriendlyName())
	}
}
