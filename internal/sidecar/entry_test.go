package sidecar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intp(i int) *int { return &i }

func TestResolveOrderHintedBeforeUnhinted(t *testing.T) {
	e := &Entry{Sections: []Section{
		{Heading: "Examples"},
		{Heading: "Remarks", Order: intp(1)},
		{Heading: "Threading"},
		{Heading: "Usage", Order: intp(0)},
	}}

	order := e.ResolveOrder()
	headings := make([]string, 0, len(order))
	for _, s := range order {
		headings = append(headings, s.Heading)
	}
	require.Equal(t, []string{"Usage", "Remarks", "Examples", "Threading"}, headings)
}

func TestResolveOrderSeeAlsoAlwaysLast(t *testing.T) {
	e := &Entry{Sections: []Section{
		{Heading: SeeAlsoHeading, Order: intp(0)},
		{Heading: "Remarks", Order: intp(5)},
		{Heading: "Examples"},
	}}

	order := e.ResolveOrder()
	require.Equal(t, SeeAlsoHeading, order[len(order)-1].Heading)
}

func TestResolveOrderEqualHintsAreStable(t *testing.T) {
	e := &Entry{Sections: []Section{
		{Heading: "B", Order: intp(1)},
		{Heading: "A", Order: intp(1)},
	}}
	order := e.ResolveOrder()
	require.Equal(t, "B", order[0].Heading)
	require.Equal(t, "A", order[1].Heading)
}

func TestMergeDescriptionLastNonEmptyWins(t *testing.T) {
	base := &Entry{Description: "from base"}
	mid := &Entry{}
	derived := &Entry{Description: "from derived"}

	merged := Merge(base, mid, derived)
	require.Equal(t, "from derived", merged.Description)

	// An empty more-specific description does not erase the inherited one.
	merged = Merge(base, &Entry{})
	require.Equal(t, "from base", merged.Description)
}

func TestMergeSectionsReplaceByHeading(t *testing.T) {
	base := &Entry{Sections: []Section{
		{Heading: "Remarks", Body: "base remarks"},
		{Heading: "Examples", Body: "base examples"},
	}}
	derived := &Entry{Sections: []Section{
		{Heading: "Remarks", Body: "derived remarks"},
		{Heading: "Threading", Body: "derived threading"},
	}}

	merged := Merge(base, derived)
	require.Len(t, merged.Sections, 3)
	require.Equal(t, "Remarks", merged.Sections[0].Heading)
	require.Equal(t, "derived remarks", merged.Sections[0].Body)
	require.Equal(t, "Examples", merged.Sections[1].Heading)
	require.Equal(t, "Threading", merged.Sections[2].Heading)
}

func TestMergeSeeAlsoUnionFirstSeen(t *testing.T) {
	a := &Entry{SeeAlso: []Ref{{UID: "T:X"}, {UID: "T:Y"}}}
	b := &Entry{SeeAlso: []Ref{{UID: "T:Y"}, {UID: "T:Z"}}}

	merged := Merge(a, b)
	require.Len(t, merged.SeeAlso, 3)
	require.Equal(t, Ref{UID: "T:X"}, merged.SeeAlso[0])
	require.Equal(t, Ref{UID: "T:Y"}, merged.SeeAlso[1])
	require.Equal(t, Ref{UID: "T:Z"}, merged.SeeAlso[2])
}

func TestMergeSeeAlsoUIDAndURLAreDistinct(t *testing.T) {
	a := &Entry{SeeAlso: []Ref{{UID: "T:X"}, {URL: "https://example.com"}}}
	b := &Entry{SeeAlso: []Ref{{URL: "https://example.com"}}}

	merged := Merge(a, b)
	require.Len(t, merged.SeeAlso, 2)
}

func TestMergeNilEntries(t *testing.T) {
	merged := Merge(nil, &Entry{Description: "d"}, nil)
	require.Equal(t, "d", merged.Description)

	empty := Merge(nil, nil)
	require.True(t, empty.IsEmpty())
}
