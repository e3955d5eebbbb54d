package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLesson_ToggleLike(t *testing.T) {
	l := &Lesson{}

	assert.True(t, l.ToggleLike("a@example.com"))
	assert.True(t, l.ToggleLike("b@example.com"))
	assert.Equal(t, 2, l.LikesCount)

	assert.False(t, l.ToggleLike("a@example.com"))
	assert.Equal(t, 1, l.LikesCount)
	assert.Equal(t, []string{"b@example.com"}, []string(l.Likes))
}

func TestLesson_ToggleDoesNotShareBacking(t *testing.T) {
	l := &Lesson{}
	l.ToggleFavorite("a@example.com")
	before := l.Clone()

	l.ToggleFavorite("b@example.com")
	l.ToggleFavorite("a@example.com")

	assert.Equal(t, []string{"a@example.com"}, []string(before.FavoritedBy))
	assert.Equal(t, 1, before.FavoritesCount)
	assert.True(t, l.IsFavoritedBy("b@example.com"))
	assert.False(t, l.IsFavoritedBy("a@example.com"))
}

func TestLesson_ClearReport(t *testing.T) {
	l := &Lesson{}
	assert.False(t, l.ClearReport())

	l.MarkReported()
	l.MarkReported()
	assert.Equal(t, 2, l.ReportCount)

	assert.True(t, l.ClearReport())
	assert.False(t, l.IsReported)
	assert.Zero(t, l.ReportCount)
}

func TestLesson_OwnedBy(t *testing.T) {
	l := &Lesson{Creator: Creator{Email: "ada@example.com"}}

	assert.True(t, l.OwnedBy(" ADA@example.com"))
	assert.False(t, l.OwnedBy("bob@example.com"))
	assert.False(t, l.OwnedBy(""))
}

func TestLessonDraft_Normalize(t *testing.T) {
	d := LessonDraft{Title: "  Hello  "}
	require.NoError(t, d.Normalize())
	assert.Equal(t, "Hello", d.Title)
	assert.Equal(t, VisibilityPublic, d.Visibility)
	assert.Equal(t, AccessLevelFree, d.AccessLevel)

	tests := []struct {
		name  string
		draft LessonDraft
		want  error
	}{
		{"blank title", LessonDraft{Title: " "}, ErrTitleRequired},
		{"long title", LessonDraft{Title: strings.Repeat("t", MaxTitleLength+1)}, ErrTitleTooLong},
		{"bad visibility", LessonDraft{Title: "x", Visibility: "friends"}, ErrInvalidVisibility},
		{"bad access level", LessonDraft{Title: "x", AccessLevel: "gold"}, ErrInvalidAccessLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.draft.Normalize(), tt.want)
		})
	}
}

func TestLessonPatch_ApplyTo(t *testing.T) {
	l := &Lesson{Title: "Old", Category: "Career", LikesCount: 4}

	same := "Career"
	assert.False(t, LessonPatch{Category: &same}.ApplyTo(l))

	title := "  New  "
	private := VisibilityPrivate
	assert.True(t, LessonPatch{Title: &title, Visibility: &private}.ApplyTo(l))
	assert.Equal(t, "New", l.Title)
	assert.Equal(t, VisibilityPrivate, l.Visibility)
	assert.Equal(t, 4, l.LikesCount)
}

func TestLessonPatch_Validate(t *testing.T) {
	assert.ErrorIs(t, LessonPatch{}.Validate(), ErrEmptyPatch)

	blank := "  "
	assert.ErrorIs(t, LessonPatch{Title: &blank}.Validate(), ErrTitleRequired)

	gold := "gold"
	assert.ErrorIs(t, LessonPatch{AccessLevel: &gold}.Validate(), ErrInvalidAccessLevel)

	content := "body"
	assert.NoError(t, LessonPatch{Content: &content}.Validate())
}

func TestComments_ValueAndScan(t *testing.T) {
	v, err := Comments(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var c Comments
	require.NoError(t, c.Scan(nil))
	assert.NotNil(t, c)
	assert.Empty(t, c)

	require.NoError(t, c.Scan([]byte(`[{"id":"c1","text":"hi"}]`)))
	require.Len(t, c, 1)
	assert.Equal(t, "hi", c[0].Text)

	assert.Error(t, c.Scan(42))
}

func TestContributorScore(t *testing.T) {
	assert.Equal(t, 33, ContributorScore(3, 10, 4))
	assert.Zero(t, ContributorScore(0, 0, 0))
}
