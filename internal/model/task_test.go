package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePriority(t *testing.T) {
	cases := map[string]Priority{
		"Alta":   PriorityHigh,
		"alta":   PriorityHigh,
		" MÉDIA": PriorityMedium,
		"media":  PriorityMedium,
		"Baixa":  PriorityLow,
	}
	for in, want := range cases {
		got, ok := ParsePriority(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParsePriority("urgent")
	assert.False(t, ok)
	_, ok = ParsePriority("")
	assert.False(t, ok)
}

func TestNormalizePriorityDefaultsToMedium(t *testing.T) {
	assert.Equal(t, PriorityMedium, NormalizePriority("urgent"))
	assert.Equal(t, PriorityLow, NormalizePriority("baixa"))
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Equal(t, 4, Priority("Urgente").Rank())
	assert.False(t, Priority("Urgente").Valid())
}

func TestSortTasks(t *testing.T) {
	str := func(s string) *string { return &s }
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tasks := []Task{
		{ID: 1, Title: "none", Priority: PriorityHigh, CreatedAt: base},
		{ID: 2, Title: "b-low", Category: str("B"), Priority: PriorityLow, CreatedAt: base},
		{ID: 3, Title: "b-high-undated", Category: str("B"), Priority: PriorityHigh, CreatedAt: base},
		{ID: 4, Title: "b-high-dated", Category: str("B"), Priority: PriorityHigh, DueDate: str("2024-04-01"), CreatedAt: base},
		{ID: 5, Title: "a-old", Category: str("A"), Priority: PriorityMedium, CreatedAt: base},
		{ID: 6, Title: "a-new", Category: str("A"), Priority: PriorityMedium, CreatedAt: base.Add(time.Hour)},
		{ID: 7, Title: "a-old-twin", Category: str("A"), Priority: PriorityMedium, CreatedAt: base},
		{ID: 8, Title: "blank", Category: str("  "), Priority: PriorityHigh, CreatedAt: base},
	}
	SortTasks(tasks)

	var got []string
	for _, task := range tasks {
		got = append(got, task.Title)
	}
	assert.Equal(t, []string{"a-new", "a-old-twin", "a-old", "b-high-dated", "b-high-undated", "b-low", "blank", "none"}, got)
}

func TestTaskUpdateEmpty(t *testing.T) {
	assert.True(t, TaskUpdate{}.Empty())
	title := "x"
	assert.False(t, TaskUpdate{Title: &title}.Empty())
}

func TestFoldEqual(t *testing.T) {
	assert.True(t, FoldEqual("Saúde", "saude"))
	assert.False(t, FoldEqual("Saúde", "Sal"))
}

func TestBriefOf(t *testing.T) {
	brief := BriefOf(Task{ID: 3, Title: "x", Priority: PriorityLow})
	assert.Equal(t, "Sem categoria", brief.Category)
	assert.Equal(t, uint(3), brief.ID)
}
