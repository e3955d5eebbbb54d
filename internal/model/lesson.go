package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Lesson visibility and access levels
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"

	AccessLevelFree    = "free"
	AccessLevelPremium = "premium"
)

// Lesson constraints
const (
	MaxTitleLength   = 200
	MaxCommentLength = 1000
	RecentLessonsCap = 5
	DefaultPageLimit = 12
	MaxPageLimit     = 50
)

func ValidVisibility(v string) bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

func ValidAccessLevel(level string) bool {
	return level == AccessLevelFree || level == AccessLevelPremium
}

// Creator is the point-in-time copy of the author's account taken when the
// lesson is created. It is never refreshed from the live account.
type Creator struct {
	Name     string `db:"creator_name" json:"name"`
	Email    string `db:"creator_email" json:"email"`
	UID      string `db:"creator_uid" json:"uid"`
	PhotoURL string `db:"creator_photo" json:"photoURL"`
}

// Comment is one entry of a lesson's ordered comment thread.
type Comment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PhotoURL  string    `json:"photoURL"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Comments is stored as a JSONB array.
type Comments []Comment

func (c Comments) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal comments: %w", err)
	}
	return string(b), nil
}

func (c *Comments) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = Comments{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan comments: unsupported type %T", src)
	}
	var out Comments
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("unmarshal comments: %w", err)
	}
	if out == nil {
		out = Comments{}
	}
	*c = out
	return nil
}

// Lesson is one piece of shared content. The same row shape is stored in the
// public index and the owner index.
type Lesson struct {
	ID               string `db:"id" json:"id"`
	Title            string `db:"title" json:"title"`
	ShortDescription string `db:"short_description" json:"shortDescription"`
	Description      string `db:"description" json:"description"`
	Category         string `db:"category" json:"category"`
	EmotionalTone    string `db:"emotional_tone" json:"emotionalTone"`
	Image            string `db:"image" json:"image"`
	Content          string `db:"content" json:"content"`
	Visibility       string `db:"visibility" json:"visibility"`
	AccessLevel      string `db:"access_level" json:"accessLevel"`

	Creator `json:"creator"`

	LikesCount     int            `db:"likes_count" json:"likesCount"`
	FavoritesCount int            `db:"favorites_count" json:"favoritesCount"`
	Likes          pq.StringArray `db:"likes" json:"likes"`
	FavoritedBy    pq.StringArray `db:"favorited_by" json:"favoritedBy"`
	Comments       Comments       `db:"comments" json:"comments"`

	IsReported  bool `db:"is_reported" json:"isReported"`
	ReportCount int  `db:"report_count" json:"reportCount"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Clone returns a deep copy so a pre-image survives later mutation.
func (l *Lesson) Clone() *Lesson {
	c := *l
	c.Likes = append(pq.StringArray{}, l.Likes...)
	c.FavoritedBy = append(pq.StringArray{}, l.FavoritedBy...)
	c.Comments = append(Comments{}, l.Comments...)
	return &c
}

func (l *Lesson) IsPublic() bool {
	return l.Visibility == VisibilityPublic
}

// OwnedBy reports whether email matches the creator snapshot.
func (l *Lesson) OwnedBy(email string) bool {
	return email != "" && NormalizeEmail(l.Creator.Email) == NormalizeEmail(email)
}

// ToggleLike adds or removes email from the like set and keeps LikesCount in
// step. It returns whether the email likes the lesson afterwards.
func (l *Lesson) ToggleLike(email string) bool {
	var liked bool
	l.Likes, liked = toggle(l.Likes, email)
	l.LikesCount = len(l.Likes)
	return liked
}

// ToggleFavorite is ToggleLike for the favorites set.
func (l *Lesson) ToggleFavorite(email string) bool {
	var favorited bool
	l.FavoritedBy, favorited = toggle(l.FavoritedBy, email)
	l.FavoritesCount = len(l.FavoritedBy)
	return favorited
}

func (l *Lesson) IsFavoritedBy(email string) bool {
	return indexOf(l.FavoritedBy, email) >= 0
}

func (l *Lesson) AddComment(c Comment) {
	l.Comments = append(l.Comments, c)
}

func (l *Lesson) MarkReported() {
	l.IsReported = true
	l.ReportCount++
}

// ClearReport resets moderation state. Returns false if there was nothing to clear.
func (l *Lesson) ClearReport() bool {
	if !l.IsReported && l.ReportCount == 0 {
		return false
	}
	l.IsReported = false
	l.ReportCount = 0
	return true
}

func toggle(set pq.StringArray, email string) (pq.StringArray, bool) {
	if i := indexOf(set, email); i >= 0 {
		out := append(pq.StringArray{}, set[:i]...)
		return append(out, set[i+1:]...), false
	}
	return append(append(pq.StringArray{}, set...), email), true
}

func indexOf(set []string, email string) int {
	for i, e := range set {
		if e == email {
			return i
		}
	}
	return -1
}

// LessonDraft is the body of POST /dashboard/add-lesson.
type LessonDraft struct {
	Title            string `json:"title"`
	ShortDescription string `json:"shortDescription"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	EmotionalTone    string `json:"emotionalTone"`
	Image            string `json:"image"`
	Content          string `json:"content"`
	Visibility       string `json:"visibility"`
	AccessLevel      string `json:"accessLevel"`
}

// Normalize trims input and fills defaults (public, free), then validates.
func (d *LessonDraft) Normalize() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Category = strings.TrimSpace(d.Category)
	d.EmotionalTone = strings.TrimSpace(d.EmotionalTone)
	if d.Visibility == "" {
		d.Visibility = VisibilityPublic
	}
	if d.AccessLevel == "" {
		d.AccessLevel = AccessLevelFree
	}

	if d.Title == "" {
		return ErrTitleRequired
	}
	if len(d.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if !ValidVisibility(d.Visibility) {
		return ErrInvalidVisibility
	}
	if !ValidAccessLevel(d.AccessLevel) {
		return ErrInvalidAccessLevel
	}
	return nil
}

// LessonPatch lists the only fields an update may touch. Engagement counters,
// moderation state and the creator snapshot are deliberately absent.
type LessonPatch struct {
	Title            *string `json:"title"`
	ShortDescription *string `json:"shortDescription"`
	Description      *string `json:"description"`
	Category         *string `json:"category"`
	EmotionalTone    *string `json:"emotionalTone"`
	Image            *string `json:"image"`
	Content          *string `json:"content"`
	Visibility       *string `json:"visibility"`
	AccessLevel      *string `json:"accessLevel"`
}

func (p LessonPatch) IsEmpty() bool {
	return p.Title == nil && p.ShortDescription == nil && p.Description == nil &&
		p.Category == nil && p.EmotionalTone == nil && p.Image == nil &&
		p.Content == nil && p.Visibility == nil && p.AccessLevel == nil
}

func (p LessonPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return ErrTitleRequired
		}
		if len(t) > MaxTitleLength {
			return ErrTitleTooLong
		}
	}
	if p.Visibility != nil && !ValidVisibility(*p.Visibility) {
		return ErrInvalidVisibility
	}
	if p.AccessLevel != nil && !ValidAccessLevel(*p.AccessLevel) {
		return ErrInvalidAccessLevel
	}
	return nil
}

// ApplyTo writes the non-nil fields onto l and reports whether anything changed.
func (p LessonPatch) ApplyTo(l *Lesson) bool {
	changed := false
	set := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		set(&l.Title, &t)
	}
	set(&l.ShortDescription, p.ShortDescription)
	set(&l.Description, p.Description)
	set(&l.Category, p.Category)
	set(&l.EmotionalTone, p.EmotionalTone)
	set(&l.Image, p.Image)
	set(&l.Content, p.Content)
	set(&l.Visibility, p.Visibility)
	set(&l.AccessLevel, p.AccessLevel)
	return changed
}

// AccessLevelRequest is the body of PATCH .../access-level.
type AccessLevelRequest struct {
	AccessLevel string `json:"accessLevel"`
}

// CommentRequest is the body of POST /lessons/{id}/comments.
type CommentRequest struct {
	Text string `json:"text"`
}

// Lesson sort orders accepted by listings.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortMostSaved = "most-saved"
	SortMostLiked = "most-liked"
)

// LessonQuery filters a listing. Zero values mean "no filter".
type LessonQuery struct {
	Visibility    string
	AccessLevel   string
	Category      string
	EmotionalTone string
	Search        string
	CreatorEmail  string
	FavoritedBy   string
	ReportedOnly  bool
	Sort          string
	Limit         int
	Offset        int
}

// LessonListResponse is the paginated listing response.
type LessonListResponse struct {
	Lessons    []Lesson `json:"lessons"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"totalPages"`
}

// LessonReport records one moderation report. Reports live outside the
// lesson row and are not duplicated across indexes.
type LessonReport struct {
	ID            string    `db:"id" json:"id"`
	LessonID      string    `db:"lesson_id" json:"lessonId"`
	ReporterEmail string    `db:"reporter_email" json:"reporterEmail"`
	Reason        string    `db:"reason" json:"reason"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// ReportRequest is the body of POST /lessons/{id}/report.
type ReportRequest struct {
	Reason string `json:"reason"`
}

// Lesson errors
var (
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleTooLong       = errors.New("title too long")
	ErrInvalidVisibility  = errors.New("invalid visibility")
	ErrInvalidAccessLevel = errors.New("invalid access level")
	ErrPremiumRequired    = errors.New("premium account required for premium lessons")
	ErrCommentRequired    = errors.New("comment text is required")
	ErrCommentTooLong     = errors.New("comment text too long")
)
