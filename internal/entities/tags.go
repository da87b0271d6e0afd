package entities

import "strings"

// Tag is a subject label attached to books, materials and posts.
type Tag string

const (
	TagMathematics     Tag = "MATHEMATICS"
	TagPhysics         Tag = "PHYSICS"
	TagChemistry       Tag = "CHEMISTRY"
	TagBiology         Tag = "BIOLOGY"
	TagComputerScience Tag = "COMPUTER_SCIENCE"
	TagEngineering     Tag = "ENGINEERING"
	TagMedicine        Tag = "MEDICINE"
	TagEconomics       Tag = "ECONOMICS"
	TagLaw             Tag = "LAW"
	TagHistory         Tag = "HISTORY"
	TagGeography       Tag = "GEOGRAPHY"
	TagPhilosophy      Tag = "PHILOSOPHY"
	TagPsychology      Tag = "PSYCHOLOGY"
	TagLiterature      Tag = "LITERATURE"
	TagLanguages       Tag = "LANGUAGES"
	TagArt             Tag = "ART"
	TagMusic           Tag = "MUSIC"
	TagOther           Tag = "OTHER"
)

// AllTags lists every tag in declaration order.
var AllTags = []Tag{
	TagMathematics, TagPhysics, TagChemistry, TagBiology, TagComputerScience,
	TagEngineering, TagMedicine, TagEconomics, TagLaw, TagHistory, TagGeography,
	TagPhilosophy, TagPsychology, TagLiterature, TagLanguages, TagArt, TagMusic,
	TagOther,
}

// ParseTag accepts tag names case-insensitively.
func ParseTag(s string) (Tag, bool) {
	candidate := Tag(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range AllTags {
		if t == candidate {
			return t, true
		}
	}
	return "", false
}

// ParseTags parses a list of tag names, returning the first invalid one.
func ParseTags(raw []string) ([]Tag, string, bool) {
	tags := make([]Tag, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		t, ok := ParseTag(r)
		if !ok {
			return nil, r, false
		}
		tags = append(tags, t)
	}
	return tags, "", true
}

// HasTag reports whether tags contains t.
func HasTag(tags []Tag, t Tag) bool {
	for _, candidate := range tags {
		if candidate == t {
			return true
		}
	}
	return false
}
