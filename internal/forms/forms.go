// Package forms builds the per-category checklist templates served to
// clients. Template rows live in the form_content table; the grouped
// section/item structure is cached wholesale in the properties store and
// regenerated on every edit. The package also owns first-boot seeding and
// the one-shot category cleanup pass.
package forms

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tmercier/go-bagcheck-backend/internal/domain"
	"github.com/tmercier/go-bagcheck-backend/internal/repo"
)

// standardNames maps historical spellings to their canonical form. Anything
// not listed falls back to trim + upper-case.
var standardNames = map[string]string{
	"VLI":         "VLI",
	"SAC ISP":     "SAC ISP",
	"Sac ISP":     "SAC ISP",
	"sac isp":     "SAC ISP",
	"SAC RESERVE": "SAC RESERVE",
	"Sac RESERVE": "SAC RESERVE",
	"SAC IADE":    "SAC IADE",
	"Sac IADE":    "SAC IADE",
	"Sac Iade":    "SAC IADE",
	"sac iade":    "SAC IADE",
}

// Canonical normalizes a category name to its standard spelling.
func Canonical(name string) string {
	t := strings.TrimSpace(name)
	if std, ok := standardNames[t]; ok {
		return std
	}
	return cases.Upper(language.French).String(t)
}

// group folds content rows into ordered sections. Rows with an empty section
// or item are skipped; items land in the first section carrying their name,
// and the first non-empty position label wins.
func group(rows []domain.FormContentRow) []domain.FormSection {
	var sections []domain.FormSection
	index := map[string]int{}
	for _, r := range rows {
		section := strings.TrimSpace(r.Section)
		item := strings.TrimSpace(r.Item)
		if section == "" || item == "" {
			continue
		}
		typ := strings.ToLower(strings.TrimSpace(r.Type))
		if typ == "" {
			typ = "texte"
		}
		i, ok := index[section]
		if !ok {
			i = len(sections)
			index[section] = i
			sections = append(sections, domain.FormSection{
				Section:  section,
				Position: strings.TrimSpace(r.Position),
			})
		}
		sections[i].Items = append(sections[i].Items, domain.FormItem{
			Name:    item,
			Type:    typ,
			Default: strings.TrimSpace(r.Default),
		})
	}
	return sections
}

// Rebuild regenerates the template map from the form_content table and
// persists it. Categories whose built-in content exists (SAC ISP,
// SAC RESERVE) are backfilled when the table has nothing for them.
func Rebuild(ctx context.Context, db *gorm.DB) (domain.FormTemplates, error) {
	cats, err := repo.ListFormCategories(ctx, db)
	if err != nil {
		return nil, err
	}
	templates := domain.FormTemplates{}
	for _, cat := range cats {
		rows, err := repo.ListFormContent(ctx, db, cat)
		if err != nil {
			return nil, err
		}
		if sections := group(rows); len(sections) > 0 {
			templates[Canonical(cat)] = sections
		}
	}
	if len(templates["SAC ISP"]) == 0 {
		templates["SAC ISP"] = defaultSacISPForm()
	}
	if len(templates["SAC RESERVE"]) == 0 {
		templates["SAC RESERVE"] = defaultSacReserveForm()
	}
	if err := repo.SetProperty(ctx, db, repo.PropForms, templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// Templates returns the cached template map, rebuilding it when the property
// is absent or unreadable.
func Templates(ctx context.Context, db *gorm.DB) (domain.FormTemplates, error) {
	var templates domain.FormTemplates
	err := repo.GetProperty(ctx, db, repo.PropForms, &templates)
	if repo.IsNotFound(err) {
		return Rebuild(ctx, db)
	}
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// ReplaceTemplate swaps one category's content rows and rebuilds the cached
// map. The incoming sections are flattened back to rows so the table stays
// the single source of truth.
func ReplaceTemplate(ctx context.Context, db *gorm.DB, category string, sections []domain.FormSection) error {
	category = Canonical(category)
	var rows []domain.FormContentRow
	for _, sec := range sections {
		for _, it := range sec.Items {
			rows = append(rows, domain.FormContentRow{
				Category: category,
				Section:  sec.Section,
				Item:     it.Name,
				Type:     it.Type,
				Default:  it.Default,
				Position: sec.Position,
			})
		}
	}
	if err := repo.ReplaceFormContent(ctx, db, category, rows); err != nil {
		return err
	}
	_, err := Rebuild(ctx, db)
	return err
}

// RenameTemplateKey moves a category's content rows and cached map entry to
// a new name. Used by the category rename path.
func RenameTemplateKey(ctx context.Context, db *gorm.DB, oldName, newName string) error {
	err := db.WithContext(ctx).
		Model(&domain.FormContentRow{}).
		Where("category = ?", oldName).
		Update("category", Canonical(newName)).Error
	if err != nil {
		return err
	}
	_, err = Rebuild(ctx, db)
	return err
}

// DeleteTemplate drops a category's content rows and cached map entry.
func DeleteTemplate(ctx context.Context, db *gorm.DB, category string) error {
	if err := repo.ReplaceFormContent(ctx, db, category, nil); err != nil {
		return err
	}
	_, err := Rebuild(ctx, db)
	return err
}

// Seed provisions the built-in inventory on first boot: the VLI category
// with bags "VLI 1" and "VLI 2", the VLI checklist rows, and default global
// options. Guarded by a property flag so it runs exactly once.
func Seed(ctx context.Context, db *gorm.DB) error {
	done, err := repo.HasProperty(ctx, db, repo.PropSeeded)
	if err != nil || done {
		return err
	}

	if _, err := repo.CreateCategory(ctx, db, "VLI", 30); err != nil {
		// Partially seeded databases already carry the row.
		log.Debug().Err(err).Msg("seed: VLI category already present")
	}
	for i, name := range []string{"VLI 1", "VLI 2"} {
		if _, err := repo.CreateBag(ctx, db, "VLI", name, i+1); err != nil {
			log.Debug().Err(err).Str("bag", name).Msg("seed: bag already present")
		}
	}

	if err := ReplaceTemplate(ctx, db, "VLI", defaultVLIForm()); err != nil {
		return err
	}

	hasOpts, err := repo.HasProperty(ctx, db, repo.PropGlobalOptions)
	if err != nil {
		return err
	}
	if !hasOpts {
		if err := repo.SetProperty(ctx, db, repo.PropGlobalOptions, domain.DefaultGlobalOptions()); err != nil {
			return err
		}
	}

	log.Info().Msg("seeded default inventory")
	return repo.SetProperty(ctx, db, repo.PropSeeded, "1")
}

// Cleanup canonicalizes category names across the whole store: config rows
// are deduplicated keeping one row per canonical name, template rows and the
// cached map migrate to canonical keys, and inventory categories are
// rewritten. RunCleanupOnce wraps it behind a property flag.
func Cleanup(ctx context.Context, db *gorm.DB) error {
	cats, err := repo.ListCategories(ctx, db)
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	var keep []domain.Category
	for _, c := range cats {
		std := Canonical(c.Name)
		if seen[std] {
			continue
		}
		seen[std] = true
		c.Name = std
		keep = append(keep, c)
	}
	if !seen["SAC RESERVE"] {
		keep = append(keep, domain.Category{Name: "SAC RESERVE", FrequencyDays: 30})
	}
	if err := repo.ReplaceCategories(ctx, db, keep); err != nil {
		return err
	}

	formCats, err := repo.ListFormCategories(ctx, db)
	if err != nil {
		return err
	}
	for _, cat := range formCats {
		if std := Canonical(cat); std != cat {
			err := db.WithContext(ctx).
				Model(&domain.FormContentRow{}).
				Where("category = ?", cat).
				Update("category", std).Error
			if err != nil {
				return err
			}
			log.Info().Str("from", cat).Str("to", std).Msg("cleanup: migrated template rows")
		}
	}

	bags, err := repo.ListBags(ctx, db)
	if err != nil {
		return err
	}
	for _, b := range bags {
		if std := Canonical(b.Category); std != b.Category {
			if err := repo.UpdateBagColumn(ctx, db, b.Name, "category", std); err != nil {
				return err
			}
		}
	}

	_, err = Rebuild(ctx, db)
	return err
}

// RunCleanupOnce runs Cleanup a single time per database, recording
// completion in the properties store.
func RunCleanupOnce(ctx context.Context, db *gorm.DB) error {
	done, err := repo.HasProperty(ctx, db, repo.PropCleanupDone)
	if err != nil || done {
		return err
	}
	if err := Cleanup(ctx, db); err != nil {
		return err
	}
	return repo.SetProperty(ctx, db, repo.PropCleanupDone, "1")
}

// InitializeDisplayOrder assigns a per-category rank to every bag that has
// none, preserving row order. Idempotent: ranked bags keep their rank.
func InitializeDisplayOrder(ctx context.Context, db *gorm.DB) error {
	bags, err := repo.ListBags(ctx, db)
	if err != nil {
		return err
	}
	counters := map[string]int{}
	for _, b := range bags {
		counters[b.Category]++
		if b.DisplayOrder <= 0 {
			if err := repo.UpdateBagColumn(ctx, db, b.Name, "display_order", counters[b.Category]); err != nil {
				return err
			}
		}
	}
	return nil
}
