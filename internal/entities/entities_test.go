package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTag(t *testing.T) {
	tag, ok := ParseTag(" mathematics ")
	assert.True(t, ok)
	assert.Equal(t, TagMathematics, tag)

	_, ok = ParseTag("astrology")
	assert.False(t, ok)
}

func TestParseTags(t *testing.T) {
	tags, bad, ok := ParseTags([]string{"physics", "", "Computer_Science"})
	assert.True(t, ok)
	assert.Empty(t, bad)
	assert.Equal(t, []Tag{TagPhysics, TagComputerScience}, tags)

	_, bad, ok = ParseTags([]string{"physics", "nope"})
	assert.False(t, ok)
	assert.Equal(t, "nope", bad)
}

func TestMaterialTypeFromFilename(t *testing.T) {
	assert.Equal(t, MaterialType("PDF"), MaterialTypeFromFilename("notes.pdf"))
	assert.Equal(t, MaterialType("DOCX"), MaterialTypeFromFilename("Lab.Report.docx"))
	assert.Equal(t, MaterialTypeUnknown, MaterialTypeFromFilename("README"))
}

func TestMaterial_AverageRating(t *testing.T) {
	m := &Material{}
	assert.Equal(t, 0.0, m.AverageRating())

	m.RatingSum, m.RatingCount = 8, 2
	assert.Equal(t, 4.0, m.AverageRating())
}

func TestRemoveIDs(t *testing.T) {
	kept, changed := RemoveIDs([]uint{1, 2, 3, 2}, map[uint]struct{}{2: {}})
	assert.True(t, changed)
	assert.Equal(t, []uint{1, 3}, kept)

	kept, changed = RemoveIDs([]uint{1}, map[uint]struct{}{9: {}})
	assert.False(t, changed)
	assert.Equal(t, []uint{1}, kept)
}
