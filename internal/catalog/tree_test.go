package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/domain"
	"catalog-service/internal/i18n"
)

func category(slug string, parent *uuid.UUID, names i18n.Translations) domain.Category {
	return domain.Category{ID: uuid.New(), Slug: slug, ParentID: parent, IsEnabled: true, Names: names}
}

func TestBuildTree_NestsChildrenInInputOrder(t *testing.T) {
	auto := category("auto", nil, i18n.Translations{"ru": "Авто", "en": "Cars"})
	phones := category("phones", nil, i18n.Translations{"ru": "Телефоны"})
	sedan := category("sedan", &auto.ID, nil)
	suv := category("suv", &auto.ID, i18n.Translations{"hy": "Ամենագնաց"})

	forest := BuildTree([]domain.Category{auto, phones, sedan, suv}, "en")

	require.Len(t, forest, 2)
	assert.Equal(t, "Cars", forest[0].Title)
	assert.Equal(t, "Телефоны", forest[1].Title, "missing en falls back to ru")
	require.Len(t, forest[0].Children, 2)
	assert.Equal(t, "sedan", forest[0].Children[0].Title, "no names falls back to slug")
	assert.Equal(t, "suv", forest[0].Children[1].Slug)
	assert.NotNil(t, forest[1].Children)
	assert.Empty(t, forest[1].Children)
}

func TestBuildTree_PromotesOrphans(t *testing.T) {
	missing := uuid.New()
	orphan := category("orphan", &missing, nil)
	root := category("root", nil, nil)

	forest := BuildTree([]domain.Category{orphan, root}, "ru")

	require.Len(t, forest, 2)
	assert.Equal(t, "orphan", forest[0].Slug)
	assert.Equal(t, "root", forest[1].Slug)
}

func TestBuildTree_BreaksCycles(t *testing.T) {
	a := category("a", nil, nil)
	b := category("b", nil, nil)
	a.ParentID = &b.ID
	b.ParentID = &a.ID
	self := category("self", nil, nil)
	self.ParentID = &self.ID

	forest := BuildTree([]domain.Category{a, b, self}, "ru")

	require.Len(t, forest, 2)
	assert.Equal(t, "a", forest[0].Slug)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "b", forest[0].Children[0].Slug)
	assert.Empty(t, forest[0].Children[0].Children)
	assert.Equal(t, "self", forest[1].Slug)
}

func TestBuildTree_CapsDepth(t *testing.T) {
	var chain []domain.Category
	var parent *uuid.UUID
	for i := 0; i < maxTreeDepth+3; i++ {
		c := category("c", parent, nil)
		chain = append(chain, c)
		parent = &chain[len(chain)-1].ID
	}

	forest := BuildTree(chain, "ru")

	require.Len(t, forest, 2, "the node below the cap starts a new root")
	depth := 0
	for n := forest[0]; ; n = n.Children[0] {
		depth++
		if len(n.Children) == 0 {
			break
		}
	}
	assert.Equal(t, maxTreeDepth, depth)
	assert.Equal(t, chain[maxTreeDepth].ID, forest[1].ID)
}

func TestBuildTree_Empty(t *testing.T) {
	assert.Empty(t, BuildTree(nil, "ru"))
}
