package genre

import "slices"

// canonicalAliases maps common spellings to canonical slugs. Combined
// categories expand to every genre they name.
var canonicalAliases = map[string][]string{
	"sci-fi":                  {"science-fiction"},
	"scifi":                   {"science-fiction"},
	"sf":                      {"science-fiction"},
	"science-fiction-fantasy": {"science-fiction", "fantasy"},
	"sci-fi-fantasy":          {"science-fiction", "fantasy"},
	"sff":                     {"science-fiction", "fantasy"},
	"high-fantasy":            {"epic-fantasy"},
	"romantic-fantasy":        {"romantasy"},
	"ya":                      {"young-adult"},
	"teen":                    {"young-adult"},
	"mystery-thriller":        {"mystery", "thriller"},
	"suspense":                {"thriller"},
	"crime-fiction":           {"crime"},
	"biographies-memoirs":     {"biography-memoir"},
	"biography":               {"biography-memoir"},
	"memoir":                  {"biography-memoir"},
	"literary":                {"literary-fiction"},
	"nonfiction":              {"non-fiction"},
	"self-help":               {"self-help"},
	"selfhelp":                {"self-help"},
	"personal-development":    {"self-help"},
	"graphic-novels":          {"graphic-novel"},
	"comics":                  {"graphic-novel"},
}

// Canonical resolves a raw tag to its canonical slugs.
func Canonical(tag string) []string {
	slug := Slugify(tag)
	if slug == "" {
		return nil
	}
	if mapped, ok := canonicalAliases[slug]; ok {
		return mapped
	}
	return []string{slug}
}

// Normalize resolves every tag and returns the distinct canonical slugs in
// first-seen order.
func Normalize(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		for _, c := range Canonical(t) {
			if !slices.Contains(out, c) {
				out = append(out, c)
			}
		}
	}
	return out
}
