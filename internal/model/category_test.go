package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryMap_Names(t *testing.T) {
	m := CategoryMap{
		{Name: "Zeta", Keywords: []string{"z"}},
		{Name: "Alpha", Keywords: []string{"a"}},
	}

	assert.Equal(t, []string{"Zeta", "Alpha"}, m.Names())
	assert.True(t, m.Has("Alpha"))
	assert.False(t, m.Has("alpha"))

	kws, ok := m.Lookup("Zeta")
	assert.True(t, ok)
	assert.Equal(t, []string{"z"}, kws)
}

func TestDefaultCategoryMap(t *testing.T) {
	m := DefaultCategoryMap()
	assert.Equal(t, []string{"Transport", "Food", "Housing", "Utilities", "Communication", "Income"}, m.Names())
}

func TestScope(t *testing.T) {
	assert.True(t, GlobalScope.IsGlobal())
	assert.True(t, UserScope("").IsGlobal())
	assert.False(t, UserScope("42").IsGlobal())
	assert.Equal(t, "global", GlobalScope.String())
	assert.Equal(t, "user:42", UserScope("42").String())
}

func TestUnknownResult(t *testing.T) {
	r := UnknownResult()
	assert.True(t, r.IsUnknown())
	assert.Equal(t, ReasoningNone, r.Reasoning)
	assert.Zero(t, r.Confidence)
}
