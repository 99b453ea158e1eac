// Package lint checks sidecar files and generated trees for problems that
// generation itself tolerates: unparseable sidecars, unknown UIDs, broken
// relative links, and malformed embedded HTML.
package lint

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/refdocs/internal/metadata"
	"git.home.luguber.info/inful/refdocs/internal/sidecar"
)

// Rule identifies a lint check.
type Rule string

const (
	RuleParse             Rule = "sidecar-parse"
	RuleMissingUID        Rule = "sidecar-missing-uid"
	RuleUnknownUID        Rule = "sidecar-unknown-uid"
	RuleDuplicateUID      Rule = "sidecar-duplicate-uid"
	RuleUntouchedSkeleton Rule = "sidecar-untouched-skeleton"
	RuleSeeAlsoUnknown    Rule = "see-also-unknown-uid"
	RuleBrokenLink        Rule = "page-broken-link"
	RuleBadHTMLAnchor     Rule = "sidecar-bad-html-anchor"
)

// Issue is one lint finding.
type Issue struct {
	Rule    Rule
	Path    string
	UID     metadata.UID
	Message string
}

func (i Issue) String() string {
	if i.UID != "" {
		return fmt.Sprintf("%s: %s (%s): %s", i.Rule, i.Path, i.UID, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Rule, i.Path, i.Message)
}

// Linter runs all checks against one version's sidecars and generated tree.
type Linter struct {
	Graph *metadata.Graph
	Store *sidecar.Store

	// TreeRoot is the generated tree to check for broken links; empty skips
	// the tree checks.
	TreeRoot string
}

// Run executes every check and returns findings sorted by path then rule.
func (l *Linter) Run() ([]Issue, error) {
	var issues []Issue

	sidecarIssues, err := l.lintSidecars()
	if err != nil {
		return nil, err
	}
	issues = append(issues, sidecarIssues...)

	if l.TreeRoot != "" {
		treeIssues, err := lintTree(l.TreeRoot)
		if err != nil {
			return nil, err
		}
		issues = append(issues, treeIssues...)
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Path != issues[j].Path {
			return issues[i].Path < issues[j].Path
		}
		return issues[i].Rule < issues[j].Rule
	})
	return issues, nil
}

func (l *Linter) lintSidecars() ([]Issue, error) {
	var issues []Issue
	seen := map[metadata.UID]string{}

	err := l.Store.Walk(func(relPath string, content []byte) error {
		entry, parseErr := sidecar.Parse(content)
		if parseErr != nil {
			issues = append(issues, Issue{
				Rule: RuleParse, Path: relPath,
				Message: parseErr.Error(),
			})
			return nil
		}

		if entry.UID.IsZero() {
			issues = append(issues, Issue{
				Rule: RuleMissingUID, Path: relPath,
				Message: "frontmatter has no uid, entry cannot be matched to the graph",
			})
		} else {
			if prev, dup := seen[entry.UID]; dup {
				issues = append(issues, Issue{
					Rule: RuleDuplicateUID, Path: relPath, UID: entry.UID,
					Message: fmt.Sprintf("uid already used by %s", prev),
				})
			} else {
				seen[entry.UID] = relPath
			}
			if l.Graph != nil {
				if _, ok := l.Graph.Resolve(entry.UID); !ok {
					issues = append(issues, Issue{
						Rule: RuleUnknownUID, Path: relPath, UID: entry.UID,
						Message: "uid does not resolve in the metadata graph",
					})
				}
			}
		}

		if l.Graph != nil {
			for _, ref := range entry.SeeAlso {
				if ref.UID.IsZero() {
					continue
				}
				if _, ok := l.Graph.Resolve(ref.UID); !ok {
					issues = append(issues, Issue{
						Rule: RuleSeeAlsoUnknown, Path: relPath, UID: ref.UID,
						Message: "see-also target does not resolve in the metadata graph",
					})
				}
			}
		}

		if untouched, fpErr := sidecar.Untouched(content); fpErr == nil && untouched {
			issues = append(issues, Issue{
				Rule: RuleUntouchedSkeleton, Path: relPath, UID: entry.UID,
				Message: "skeleton has never been edited",
			})
		}

		issues = append(issues, lintHTMLAnchors(relPath, content)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk sidecars: %w", err)
	}
	return issues, nil
}
