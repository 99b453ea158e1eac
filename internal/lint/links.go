package lint

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/refdocs/internal/frontmatter"
)

// lintTree walks a generated tree and reports relative markdown links whose
// targets do not exist. External links and anchors are not checked.
func lintTree(root string) ([]Issue, error) {
	var issues []Issue
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		content, readErr := os.ReadFile(p) // #nosec G304
		if readErr != nil {
			return readErr
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		relSlash := filepath.ToSlash(rel)

		_, body, _, _, splitErr := frontmatter.Split(content)
		if splitErr != nil {
			body = content
		}

		for _, dest := range extractLinks(body) {
			if !isRelativeDoc(dest) {
				continue
			}
			target := path.Join(path.Dir(relSlash), stripFragment(dest))
			if _, statErr := os.Stat(filepath.Join(root, filepath.FromSlash(target))); os.IsNotExist(statErr) {
				issues = append(issues, Issue{
					Rule: RuleBrokenLink, Path: relSlash,
					Message: fmt.Sprintf("link target %s does not exist", dest),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk generated tree: %w", err)
	}
	return issues, nil
}

// extractLinks collects link destinations from a markdown body.
func extractLinks(body []byte) []string {
	md := goldmark.New()
	root := md.Parser().Parse(gmtext.NewReader(body))

	var dests []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if link, ok := n.(*gmast.Link); ok {
			dests = append(dests, string(link.Destination))
		}
		return gmast.WalkContinue, nil
	})
	return dests
}

func isRelativeDoc(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return false
	}
	if strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:") {
		return false
	}
	return strings.HasSuffix(stripFragment(dest), ".md")
}

func stripFragment(dest string) string {
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		return dest[:i]
	}
	return dest
}

// lintHTMLAnchors parses any raw HTML embedded in a sidecar body and flags
// anchor tags without a usable href. Authors sometimes paste HTML from other
// tools; a bare <a> renders as dead text.
func lintHTMLAnchors(relPath string, content []byte) []Issue {
	_, body, _, _, err := frontmatter.Split(content)
	if err != nil {
		return nil
	}
	if !bytes.Contains(body, []byte("<a")) {
		return nil
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return []Issue{{
			Rule: RuleBadHTMLAnchor, Path: relPath,
			Message: fmt.Sprintf("embedded HTML does not parse: %v", err),
		}}
	}

	var issues []Issue
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := ""
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					href = strings.TrimSpace(attr.Val)
				}
			}
			if href == "" {
				issues = append(issues, Issue{
					Rule: RuleBadHTMLAnchor, Path: relPath,
					Message: "anchor tag without href",
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return issues
}
