package yaml

import (
	"strings"
	"testing"
)

func TestRulesParser_Parse_Valid(t *testing.T) {
	parser := NewRulesParser()
	yamlData := []byte(`groups:
- name: node
  rules:
  - alert: NodeDown
    expr: up{job="node"} == 0
    for: 5m
    labels:
      severity: critical
    annotations:
      summary: node is down
  - record: job:up:sum
    expr: sum by (job) (up)
- name: overrides
  rules:
  - alert: NodeDownDev
    expr: up{env="dev"} == 0
    enabled: true
    override:
    - NodeDown
`)

	file, err := parser.Parse(yamlData)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(file.Groups) != 2 {
		t.Fatalf("Groups count = %d, want 2", len(file.Groups))
	}

	nodeDown := file.Groups[0].Rules[0]
	if nodeDown.Alert != "NodeDown" {
		t.Errorf("Alert = %v, want NodeDown", nodeDown.Alert)
	}
	if nodeDown.For != "5m" {
		t.Errorf("For = %v, want 5m", nodeDown.For)
	}
	if nodeDown.Labels["severity"] != "critical" {
		t.Errorf("Labels[severity] = %v, want critical", nodeDown.Labels["severity"])
	}
	if nodeDown.Enabled != nil {
		t.Error("Enabled should be nil when not set")
	}

	if file.Groups[0].Rules[1].Record != "job:up:sum" {
		t.Errorf("Record = %v, want job:up:sum", file.Groups[0].Rules[1].Record)
	}

	override := file.Groups[1].Rules[0]
	if !override.IsOverride() {
		t.Error("NodeDownDev should be an override rule")
	}
	if override.Enabled == nil || !*override.Enabled {
		t.Error("Enabled should be true")
	}
}

func TestRulesParser_Parse_Invalid(t *testing.T) {
	parser := NewRulesParser()

	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "no groups", data: "foo: bar\n"},
		{name: "not yaml", data: "groups: [\n"},
		{name: "wrong type", data: "groups: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parser.Parse([]byte(tt.data)); err == nil {
				t.Error("Parse() should return error")
			}
		})
	}
}

func TestRulesParser_Marshal(t *testing.T) {
	parser := NewRulesParser()

	file, err := parser.Parse([]byte(`groups:
- name: node
  rules:
  - alert: NodeDown
    expr: up == 0
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	out, err := parser.Marshal(file)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	for _, want := range []string{"groups:", "name: node", "alert: NodeDown", "expr: up == 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("Marshal() output missing %q:\n%s", want, out)
		}
	}
	for _, unwanted := range []string{"record:", "labels:", "enabled:", "override:"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("Marshal() output should omit empty %q:\n%s", unwanted, out)
		}
	}
}
