// Package services implements domain business logic and use cases.
package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ochairo/fetchrun/internal/domain/entities"
	"github.com/ochairo/fetchrun/internal/domain/interfaces"
	"github.com/ochairo/fetchrun/internal/domain/interfaces/repositories"
)

var selectorPattern = regexp.MustCompile(`\{.*\}`)

// RulesRenderer serializes a merged rule file
type RulesRenderer interface {
	Marshal(file *entities.AlertFile) (string, error)
}

// RulesService merges alert rule files and resolves override rules
type RulesService struct {
	repo     repositories.RulesRepository
	renderer RulesRenderer
	logger   interfaces.Logger
}

// NewRulesService creates a new rules service with dependency injection
func NewRulesService(repo repositories.RulesRepository, renderer RulesRenderer, logger interfaces.Logger) *RulesService {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &RulesService{repo: repo, renderer: renderer, logger: logger}
}

// MergeAll loads every rule file, applies overrides and returns the
// exported YAML
func (s *RulesService) MergeAll(ctx context.Context) (string, error) {
	files, err := s.repo.LoadAll(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load rules: %w", err)
	}

	merged := Merge(files)
	overrides := ApplyOverrides(merged)
	exported := PruneForExport(merged)

	s.logger.Info("rules merged",
		interfaces.F("files", len(files)),
		interfaces.F("groups", len(exported.Groups)),
		interfaces.F("overrides", overrides),
	)

	out, err := s.renderer.Marshal(exported)
	if err != nil {
		return "", fmt.Errorf("failed to export rules: %w", err)
	}
	return out, nil
}

// Merge concatenates the groups of all files
func Merge(files []*entities.AlertFile) *entities.AlertFile {
	merged := &entities.AlertFile{}
	for _, f := range files {
		if f == nil {
			continue
		}
		merged.Groups = append(merged.Groups, f.Groups...)
	}
	return merged
}

// ApplyOverrides applies every override rule in file and returns how
// many were applied
func ApplyOverrides(file *entities.AlertFile) int {
	applied := 0
	for _, group := range file.Groups {
		for _, rule := range group.Rules {
			if rule.IsOverride() {
				Override(file, rule)
				applied++
			}
		}
	}
	return applied
}

// Override narrows every rule whose alert name matches one of the
// override patterns so it no longer fires where overrideRule does: the
// negated selector of overrideRule is appended to the matched rule's
// expression. Rules that are themselves overrides, unnamed, or share the
// override's name are left alone.
func Override(file *entities.AlertFile, overrideRule *entities.Rule) {
	negated := NegateFilterExpression(overrideRule.Expr)
	if negated == "" {
		return
	}

	patterns := make([]*regexp.Regexp, 0, len(overrideRule.Override))
	for _, o := range overrideRule.Override {
		patterns = append(patterns, wordPattern(o))
	}

	for _, group := range file.Groups {
		for _, rule := range group.Rules {
			if rule.Alert == overrideRule.Alert || rule.Alert == "" || rule.IsOverride() {
				continue
			}

			for _, re := range patterns {
				if re.MatchString(rule.Alert) {
					rule.Expr = AppendFilters(negated, rule.Expr)
					break
				}
			}
		}
	}
}

// NegateFilterExpression returns the matchers of the first label selector
// in expr with each operator inverted, without braces. It returns "" when
// expr has no selector.
func NegateFilterExpression(expr string) string {
	selector := selectorPattern.FindString(expr)
	if selector == "" {
		return ""
	}

	body := strings.TrimSuffix(strings.TrimPrefix(selector, "{"), "}")
	if strings.TrimSpace(body) == "" {
		return ""
	}

	matchers := strings.Split(body, ",")
	for i, m := range matchers {
		matchers[i] = negateMatcher(m)
	}

	return strings.Join(matchers, ",")
}

func negateMatcher(m string) string {
	switch {
	case strings.Contains(m, "!="):
		return strings.Replace(m, "!=", "=", 1)
	case strings.Contains(m, "!~"):
		return strings.Replace(m, "!~", "=~", 1)
	case strings.Contains(m, "=~"):
		return strings.Replace(m, "=~", "!~", 1)
	case strings.Contains(m, "="):
		return strings.Replace(m, "=", "!=", 1)
	default:
		return m
	}
}

// AppendFilters inserts filters into the first label selector of expr.
// An expression without a selector gets an empty one on its first token.
func AppendFilters(filters, expr string) string {
	if filters == "" {
		return expr
	}

	if !strings.Contains(expr, "{") && !strings.Contains(expr, "}") {
		words := strings.Fields(expr)
		if len(words) == 0 {
			return expr
		}
		words[0] += "{}"
		expr = strings.Join(words, " ")
	}

	idx := strings.Index(expr, "}")
	if idx < 0 {
		return expr
	}

	separator := ","
	if idx > 0 && expr[idx-1] == '{' {
		separator = ""
	}
	return expr[:idx] + separator + filters + expr[idx:]
}

// PruneForExport drops disabled rules and strips the merge-time fields
func PruneForExport(file *entities.AlertFile) *entities.AlertFile {
	out := &entities.AlertFile{Groups: make([]entities.Group, 0, len(file.Groups))}
	for _, group := range file.Groups {
		kept := make([]*entities.Rule, 0, len(group.Rules))
		for _, rule := range group.Rules {
			if rule.IsDisabled() {
				continue
			}
			r := *rule
			r.Enabled = nil
			r.Override = nil
			kept = append(kept, &r)
		}
		out.Groups = append(out.Groups, entities.Group{Name: group.Name, Rules: kept})
	}
	return out
}

func wordPattern(name string) *regexp.Regexp {
	re, err := regexp.Compile(`\b` + name + `\b`)
	if err != nil {
		return regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	}
	return re
}
