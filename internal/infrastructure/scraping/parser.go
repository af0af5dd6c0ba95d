package scraping

import (
	"bytes"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

var (
	amountRe = regexp.MustCompile(`\$\s?([\d,]+(?:\.\d{1,2})?)(\s?[kKmM])?`)

	// dateLayouts are tried in order against candidate deadline strings.
	dateLayouts = []string{
		"January 2, 2006",
		"Jan 2, 2006",
		"2006-01-02",
		"01/02/2006",
		"2 January 2006",
	}

	deadlineHintRe = regexp.MustCompile(`(?i)(deadline|due|closes?|apply by)[:\s]*([A-Za-z0-9 ,/-]+)`)
	rollingRe      = regexp.MustCompile(`(?i)rolling|ongoing|open year.round`)
)

// listingContainers are the element/class combinations treated as one grant
// listing each.
var listingClassHints = []string{"grant", "opportunity", "funding", "award", "listing", "card"}

// ListingParser extracts grant drafts from listing pages.  Descriptions are
// sanitized with bluemonday before storage.
type ListingParser struct {
	sanitizer *bluemonday.Policy
	logger    logging.Logger
}

// NewListingParser builds a parser with a strict sanitization policy.
func NewListingParser(log logging.Logger) *ListingParser {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ListingParser{
		sanitizer: bluemonday.StrictPolicy(),
		logger:    log.Named("parser"),
	}
}

// Parse extracts grants from an HTML listing page.  Listings missing a title
// are skipped with a warning; a page with no recognizable listings yields an
// empty slice, not an error.
func (p *ListingParser) Parse(sourceName, sourceURL string, page []byte) ([]*grant.Grant, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeGrantParseFailed, "parsing %s", sourceURL)
	}

	var nodes []*html.Node
	collectListingNodes(doc, &nodes)

	base, _ := url.Parse(sourceURL)
	var out []*grant.Grant
	seen := map[string]bool{}
	for _, n := range nodes {
		g := p.parseListing(n, base)
		if g == nil {
			continue
		}
		if g.Title == "" {
			p.logger.Warn("skipping listing without a title", logging.String("source", sourceURL))
			continue
		}
		if seen[g.Title+g.ApplicationURL] {
			continue
		}
		seen[g.Title+g.ApplicationURL] = true
		g.SourceName = sourceName
		g.SourceURL = listingSourceURL(sourceURL, g.ApplicationURL)
		out = append(out, g)
	}
	p.logger.Debug("parsed listing page",
		logging.String("source", sourceURL), logging.Int("grants", len(out)))
	return out, nil
}

// collectListingNodes walks the tree collecting nodes that look like one
// grant listing each.  Nested matches keep only the outermost node.
func collectListingNodes(n *html.Node, out *[]*html.Node) {
	if n.Type == html.ElementNode && isListingNode(n) {
		*out = append(*out, n)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectListingNodes(c, out)
	}
}

func isListingNode(n *html.Node) bool {
	switch n.Data {
	case "article":
		return true
	case "li", "div", "section", "tr":
		class := strings.ToLower(attr(n, "class") + " " + attr(n, "id"))
		for _, hint := range listingClassHints {
			if strings.Contains(class, hint) {
				return true
			}
		}
	}
	return false
}

func (p *ListingParser) parseListing(n *html.Node, base *url.URL) *grant.Grant {
	title, href := findTitleAndLink(n)
	text := textContent(n)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	g := grant.NewGrant(strings.TrimSpace(title), findFunder(n))
	g.Description = p.sanitizer.Sanitize(strings.TrimSpace(text))
	if len(g.Description) > 2000 {
		g.Description = g.Description[:2000]
	}
	if href != "" && base != nil {
		if u, err := base.Parse(href); err == nil {
			g.ApplicationURL = u.String()
		}
	}

	g.AmountMin, g.AmountMax, g.AmountTypical = parseAmounts(text)
	g.Deadline = parseDeadline(text)
	g.Status = inferStatus(text, g.Deadline)
	return g
}

// findTitleAndLink prefers heading text, falling back to the first link.
func findTitleAndLink(n *html.Node) (title, href string) {
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if title != "" && href != "" {
			return
		}
		if node.Type == html.ElementNode {
			switch node.Data {
			case "h1", "h2", "h3", "h4":
				if title == "" {
					title = strings.TrimSpace(textContent(node))
					if a := firstAnchor(node); a != nil && href == "" {
						href = attr(a, "href")
					}
				}
			case "a":
				if href == "" {
					href = attr(node, "href")
				}
				if title == "" {
					title = strings.TrimSpace(textContent(node))
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return title, href
}

// findFunder looks for an element whose class names it a funder.
func findFunder(n *html.Node) string {
	var funder string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if funder != "" {
			return
		}
		if node.Type == html.ElementNode {
			class := strings.ToLower(attr(node, "class"))
			if strings.Contains(class, "funder") || strings.Contains(class, "sponsor") || strings.Contains(class, "foundation") {
				funder = strings.TrimSpace(textContent(node))
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	if funder == "" {
		funder = "Unknown"
	}
	return funder
}

func firstAnchor(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "a" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if a := firstAnchor(c); a != nil {
			return a
		}
	}
	return nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// parseAmounts extracts dollar figures: one figure is the typical amount,
// two or more become the min/max range.
func parseAmounts(text string) (min, max, typical float64) {
	matches := amountRe.FindAllStringSubmatch(text, 4)
	var values []float64
	for _, m := range matches {
		raw := strings.ReplaceAll(m[1], ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(m[2])) {
		case "k":
			v *= 1_000
		case "m":
			v *= 1_000_000
		}
		values = append(values, v)
	}
	switch len(values) {
	case 0:
		return 0, 0, 0
	case 1:
		return 0, 0, values[0]
	default:
		min, max = values[0], values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		return min, max, (min + max) / 2
	}
}

// parseDeadline finds a dated deadline near a deadline keyword.
func parseDeadline(text string) *time.Time {
	m := deadlineHintRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	candidate := strings.TrimSpace(m[2])
	for _, layout := range dateLayouts {
		// Trim the candidate to the layout's plausible length before parsing.
		end := len(layout) + 2
		if end > len(candidate) {
			end = len(candidate)
		}
		for l := end; l >= 6; l-- {
			if t, err := time.Parse(layout, strings.TrimSpace(candidate[:l])); err == nil {
				return &t
			}
		}
	}
	return nil
}

func inferStatus(text string, deadline *time.Time) gtypes.GrantStatus {
	if rollingRe.MatchString(text) {
		return gtypes.StatusRolling
	}
	if deadline != nil {
		if deadline.Before(time.Now()) {
			return gtypes.StatusClosed
		}
		return gtypes.StatusOpen
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "closed"):
		return gtypes.StatusClosed
	case strings.Contains(lower, "upcoming") || strings.Contains(lower, "coming soon"):
		return gtypes.StatusUpcoming
	case strings.Contains(lower, "open"):
		return gtypes.StatusOpen
	}
	return gtypes.StatusUnknown
}

// listingSourceURL keys scraped grants: the application link when present,
// the listing page otherwise.
func listingSourceURL(pageURL, applicationURL string) string {
	if applicationURL != "" {
		return applicationURL
	}
	return pageURL
}
