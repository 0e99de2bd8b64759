package entities

// AlertFile is a Prometheus alerting rule file
type AlertFile struct {
	Groups []Group `yaml:"groups,omitempty"`
}

// Group is a named set of rules
type Group struct {
	Name  string  `yaml:"name"`
	Rules []*Rule `yaml:"rules"`
}

// Rule is an alerting or recording rule. Enabled and Override are
// merge-time controls and are stripped on export.
type Rule struct {
	Alert       string            `yaml:"alert,omitempty"`
	Record      string            `yaml:"record,omitempty"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`

	Enabled  *bool    `yaml:"enabled,omitempty"`
	Override []string `yaml:"override,omitempty"`
}

// IsDisabled reports whether the rule was explicitly disabled
func (r *Rule) IsDisabled() bool {
	return r.Enabled != nil && !*r.Enabled
}

// IsOverride reports whether the rule overrides other rules
func (r *Rule) IsOverride() bool {
	return len(r.Override) > 0
}
