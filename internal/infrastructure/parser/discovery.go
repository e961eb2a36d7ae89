package parser

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

// AuxiliaryFile holds repositories recently linked from watched pages.
const AuxiliaryFile = "auxiliary.json"

// reservedOwners are github.com path segments that are not accounts.
var reservedOwners = map[string]struct{}{
	"topics": {}, "trending": {}, "collections": {}, "features": {}, "orgs": {},
	"sponsors": {}, "marketplace": {}, "settings": {}, "login": {}, "about": {},
}

// Discovery scans watched pages for GitHub repository links. Repository owners feed the
// recommendation list and the repositories themselves become auxiliary items. It never emits items.
type Discovery struct {
	fetcher *Fetcher
	store   ports.ArtifactStore
	cfg     config.DiscoveryConfig
	pattern *regexp.Regexp
	clock   clock.Clock
	logger  *slog.Logger
}

var _ ports.SignalContributor = (*Discovery)(nil)

// NewDiscovery compiles the repository pattern and wires the contributor.
func NewDiscovery(fetcher *Fetcher, store ports.ArtifactStore, cfg config.DiscoveryConfig, clk clock.Clock, log *slog.Logger) (*Discovery, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	pattern, err := regexp.Compile(cfg.RepoPattern)
	if err != nil {
		return nil, fmt.Errorf("discovery repo pattern: %w", err)
	}
	return &Discovery{fetcher: fetcher, store: store, cfg: cfg, pattern: pattern, clock: clk, logger: log}, nil
}

// Name identifies the contributor inside the registry.
func (d *Discovery) Name() string { return "discovery" }

// Refresh implements ports.SignalContributor.
func (d *Discovery) Refresh(ctx context.Context) error {
	if len(d.cfg.Pages) == 0 {
		return nil
	}

	mentions := map[string]int{}
	refs := map[string]map[string]struct{}{}
	var order []string
	failed := 0

	for _, page := range d.cfg.Pages {
		doc, err := d.fetcher.Document(ctx, page)
		if err != nil {
			failed++
			d.logger.Warn("discovery page failed", "page", page, "error", err)
			continue
		}

		for _, repo := range d.extractRepos(doc) {
			owner := strings.SplitN(repo, "/", 2)[0]
			mentions[owner]++
			if _, ok := refs[repo]; !ok {
				refs[repo] = map[string]struct{}{}
				order = append(order, repo)
			}
			refs[repo][page] = struct{}{}
		}
	}

	if failed == len(d.cfg.Pages) {
		return fmt.Errorf("%w: discovery: all %d pages failed", domain.ErrSourceUnavailable, failed)
	}

	if err := d.updateBloggers(mentions); err != nil {
		return err
	}
	if err := d.updateAuxiliary(order, refs); err != nil {
		return err
	}

	d.logger.Info("discovery refreshed", "pages", len(d.cfg.Pages), "failed", failed, "owners", len(mentions), "repos", len(order))
	return nil
}

// extractRepos returns owner/repo pairs linked or mentioned on the page, in document order.
func (d *Discovery) extractRepos(doc *goquery.Document) []string {
	var found []string
	seen := map[string]struct{}{}
	add := func(raw string) {
		for _, match := range d.pattern.FindAllString(raw, -1) {
			repo, ok := repoFromURL(match)
			if !ok {
				continue
			}
			if _, dup := seen[repo]; dup {
				continue
			}
			seen[repo] = struct{}{}
			found = append(found, repo)
		}
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		add(href)
	})
	add(doc.Text())
	return found
}

func repoFromURL(raw string) (string, bool) {
	path := raw
	if i := strings.Index(path, "github.com/"); i >= 0 {
		path = path[i+len("github.com/"):]
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	if _, reserved := reservedOwners[strings.ToLower(parts[0])]; reserved {
		return "", false
	}
	repo := strings.TrimRight(strings.TrimSuffix(parts[1], ".git"), ".")
	if repo == "" {
		return "", false
	}
	return parts[0] + "/" + repo, true
}

// updateBloggers adds unseen owners and bumps mention counts of known ones.
func (d *Discovery) updateBloggers(mentions map[string]int) error {
	if len(mentions) == 0 {
		return nil
	}

	var list domain.BloggerList
	d.store.ReadJSON(BloggersFile, &list)

	index := make(map[string]int, len(list.Bloggers))
	for i, b := range list.Bloggers {
		index[b.ID] = i
	}

	owners := make([]string, 0, len(mentions))
	for owner := range mentions {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	today := d.clock.Today()
	added := 0
	for _, owner := range owners {
		if i, ok := index[owner]; ok {
			list.Bloggers[i].MentionCount += mentions[owner]
			list.Bloggers[i].LastSeen = today
			continue
		}
		list.Bloggers = append(list.Bloggers, domain.Blogger{
			ID:           owner,
			Name:         owner,
			Source:       fmt.Sprintf("https://github.com/%s.atom", owner),
			Active:       true,
			MentionCount: mentions[owner],
			LastSeen:     today,
		})
		added++
	}

	if err := d.store.WriteJSON(BloggersFile, list); err != nil {
		return fmt.Errorf("save bloggers: %w", err)
	}
	if added > 0 {
		d.logger.Info("recommendation list grew", "added", added)
	}
	return nil
}

// updateAuxiliary puts this refresh's repositories first and keeps at most MaxHistory entries.
func (d *Discovery) updateAuxiliary(order []string, refs map[string]map[string]struct{}) error {
	if len(order) == 0 {
		return nil
	}

	var history domain.AuxiliaryLog
	d.store.ReadJSON(AuxiliaryFile, &history)

	now := d.clock.Timestamp()
	fresh := make([]domain.AuxiliaryItem, 0, len(order)+len(history.Items))
	seen := map[string]struct{}{}
	for _, repo := range order {
		url := "https://github.com/" + repo
		id := domain.Fingerprint(url)
		pages := make([]string, 0, len(refs[repo]))
		for page := range refs[repo] {
			pages = append(pages, page)
		}
		sort.Strings(pages)

		seen[id] = struct{}{}
		fresh = append(fresh, domain.AuxiliaryItem{
			ID:     id,
			Title:  repo,
			URL:    url,
			Source: "discovery",
			SeenAt: now,
			Refs:   pages,
		})
	}
	for _, old := range history.Items {
		if _, dup := seen[old.ID]; dup {
			continue
		}
		fresh = append(fresh, old)
	}
	if d.cfg.MaxHistory > 0 && len(fresh) > d.cfg.MaxHistory {
		fresh = fresh[:d.cfg.MaxHistory]
	}

	if err := d.store.WriteJSON(AuxiliaryFile, domain.AuxiliaryLog{Items: fresh}); err != nil {
		return fmt.Errorf("save auxiliary items: %w", err)
	}
	return nil
}
