package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCategories() []Category {
	return []Category{
		{Name: "Single-Cell Genomics", Keywords: []string{"single-cell rna-seq", "transcriptomics", "cell atlas"}},
		{Name: "Synaptic Plasticity", Keywords: []string{"synaptic plasticity", "long-term potentiation", "synapse"}},
		{Name: "Machine Learning", Keywords: []string{"machine learning", "deep learning", "neural network"}},
		{Name: "Imaging", Keywords: []string{"two-photon", "calcium imaging", "microscopy"}},
	}
}

func TestClassifyWordBoundaryBeatsThreshold(t *testing.T) {
	c := New(testCategories(), nil, nil)

	got := c.Classify("This talk covers synaptic plasticity and long-term potentiation in the hippocampus.")

	require.NotEmpty(t, got)
	assert.Equal(t, "Synaptic Plasticity", got[0])
}

func TestClassifyAliasExpansion(t *testing.T) {
	c := New(testCategories(), nil, nil)

	// "scRNA-seq" must hit the full-form keyword via the alias table, not
	// miss as a raw substring.
	got := c.Classify("We will discuss a new scRNA-seq dataset.")

	require.NotEmpty(t, got)
	assert.Equal(t, "Single-Cell Genomics", got[0])
}

func TestClassifyNoKeywordsReturnsEmpty(t *testing.T) {
	c := New(testCategories(), nil, nil)

	assert.Empty(t, c.Classify("Administrative note about parking permits."))
}

func TestClassifyBackfillsToMinimum(t *testing.T) {
	c := New(testCategories(), nil, nil)

	// Two categories clear the threshold; a substring-only hit (5 points,
	// "microscopy" inside "cryomicroscopy") backfills to the minimum of three.
	got := c.Classify("We study synaptic plasticity and long-term potentiation in synapses " +
		"using cryomicroscopy and deep learning.")

	assert.Equal(t, []string{"Synaptic Plasticity", "Machine Learning", "Imaging"}, got)
}

func TestClassifyCapsAtFour(t *testing.T) {
	c := New(append(testCategories(),
		Category{Name: "Development", Keywords: []string{"neurodevelopment"}},
	), nil, nil)

	got := c.Classify("machine learning for calcium imaging of synapse neurodevelopment " +
		"with single-cell rna-seq transcriptomics")

	assert.Len(t, got, 4)
}

func TestClassifyStopPhraseHalvesWeakScores(t *testing.T) {
	c := New(testCategories(), nil, nil)

	with := c.Classify("Introduction\nWe touch briefly on microscopy methods.")
	without := c.Classify("We touch briefly on microscopy methods.")

	// A single word-boundary hit (10) halves to 5 under a stop phrase and
	// no longer clears the threshold, though it still backfills.
	require.NotEmpty(t, without)
	require.NotEmpty(t, with)
	assert.Equal(t, "Imaging", with[0])
}

func TestClassifyTieBreaksByConfigOrder(t *testing.T) {
	c := New([]Category{
		{Name: "First", Keywords: []string{"chromatin"}},
		{Name: "Second", Keywords: []string{"chromatin"}},
	}, nil, nil)

	got := c.Classify("A talk about chromatin remodeling.")

	require.Len(t, got, 2)
	assert.Equal(t, []string{"First", "Second"}, got)
}

func TestParsePreservesCategoryOrder(t *testing.T) {
	data := []byte(`
categories:
  Zebra Topic:
    keywords: ["stripes"]
    colorId: "3"
  Alpha Topic:
    keywords: ["letters"]
    colorId: "5"
fallback_category: "Other"
fallback_colorId: "8"
stop_phrases: ["introduction"]
`)

	f, err := Parse(data)

	require.NoError(t, err)
	require.Len(t, f.Categories, 2)
	assert.Equal(t, "Zebra Topic", f.Categories[0].Name)
	assert.Equal(t, "Alpha Topic", f.Categories[1].Name)
	assert.Equal(t, "3", f.Categories[0].ColorID)
	assert.Equal(t, "Other", f.FallbackCategory)
	assert.Equal(t, []string{"introduction"}, f.StopPhrases)
}

func TestParseRejectsEmptyKeywords(t *testing.T) {
	_, err := Parse([]byte("categories:\n  Broken:\n    colorId: \"1\"\n"))

	assert.Error(t, err)
}
