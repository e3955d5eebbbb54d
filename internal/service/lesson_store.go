package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/model"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/queue"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/repository"
)

// Guard inspects the current row before a write and vetoes it with an error.
type Guard func(lesson *model.Lesson) error

const lockStripes = 64

// LessonStore is the only writer of lessons.
//
// With a transaction runner every write touches both indexes inside one
// transaction that holds the public row lock, so the owner index sees writes
// in the same order and a failure rolls both back.
//
// Without one, writes go to the public index first and are then mirrored to
// the owner index, serialized per lesson inside this process. When the mirror
// fails the public write is undone; when the undo fails too the row is
// reported as diverged (model.ErrIndexDivergence plus an index_divergence event).
type LessonStore struct {
	public    repository.LessonIndex
	owner     repository.LessonIndex
	tx        repository.LessonTxRunner
	publisher queue.Publisher
	log       *logger.Logger

	locks [lockStripes]sync.Mutex

	newID func() string
	now   func() time.Time
}

func NewLessonStore(public, owner repository.LessonIndex, publisher queue.Publisher, log *logger.Logger) *LessonStore {
	return &LessonStore{
		public:    public,
		owner:     owner,
		publisher: publisher,
		log:       log.With("component", "lesson_store"),
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// WithTx switches the store to transactional writes over both indexes.
func (s *LessonStore) WithTx(runner repository.LessonTxRunner) *LessonStore {
	s.tx = runner
	return s
}

// lock serializes the mirrored write sequence for one lesson id.
func (s *LessonStore) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// Create validates the draft and inserts the lesson into both indexes under one id.
func (s *LessonStore) Create(ctx context.Context, draft model.LessonDraft, creator model.Creator) (*model.Lesson, error) {
	if err := draft.Normalize(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	lesson := &model.Lesson{
		ID:               s.newID(),
		Title:            draft.Title,
		ShortDescription: draft.ShortDescription,
		Description:      draft.Description,
		Category:         draft.Category,
		EmotionalTone:    draft.EmotionalTone,
		Image:            draft.Image,
		Content:          draft.Content,
		Visibility:       draft.Visibility,
		AccessLevel:      draft.AccessLevel,
		Creator:          creator,
		Likes:            pq.StringArray{},
		FavoritedBy:      pq.StringArray{},
		Comments:         model.Comments{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var err error
	if s.tx != nil {
		err = s.tx.InTx(ctx, func(public, owner repository.LessonIndex) error {
			if err := public.Insert(ctx, lesson); err != nil {
				return err
			}
			return owner.Insert(ctx, lesson)
		})
	} else {
		err = s.createMirrored(ctx, lesson)
	}
	if err != nil {
		if errors.Is(err, model.ErrIndexDivergence) {
			return nil, err
		}
		return nil, fmt.Errorf("create lesson: %w", err)
	}

	queue.PublishBestEffort(ctx, s.publisher, s.log, queue.NewLessonCreatedEvent(lesson.ID, creator.Email))
	return lesson, nil
}

func (s *LessonStore) createMirrored(ctx context.Context, lesson *model.Lesson) error {
	defer s.lock(lesson.ID)()

	if err := s.public.Insert(ctx, lesson); err != nil {
		return err
	}
	if err := s.owner.Insert(ctx, lesson); err != nil {
		if _, undoErr := s.public.Delete(ctx, lesson.ID); undoErr != nil {
			return s.diverged(ctx, lesson.ID, "create", err, undoErr)
		}
		return err
	}
	return nil
}

// Mutate applies fn to the locked public row and mirrors the result to the
// owner index. Guards run inside the lock, before fn.
func (s *LessonStore) Mutate(ctx context.Context, id string, fn repository.MutateFunc, guards ...Guard) (*model.Lesson, error) {
	guarded := func(l *model.Lesson) (bool, error) {
		if err := runGuards(l, guards); err != nil {
			return false, err
		}
		return fn(l)
	}

	if s.tx == nil {
		return s.mutateMirrored(ctx, id, guarded)
	}

	var after *model.Lesson
	err := s.tx.InTx(ctx, func(public, owner repository.LessonIndex) error {
		l, changed, err := public.Mutate(ctx, id, guarded)
		if err != nil {
			return err
		}
		after = l
		if !changed {
			return nil
		}
		return owner.Put(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	return after, nil
}

func (s *LessonStore) mutateMirrored(ctx context.Context, id string, fn repository.MutateFunc) (*model.Lesson, error) {
	defer s.lock(id)()

	var before *model.Lesson
	after, changed, err := s.public.Mutate(ctx, id, func(l *model.Lesson) (bool, error) {
		before = l.Clone()
		return fn(l)
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return after, nil
	}

	if err := s.owner.Put(ctx, after); err != nil {
		if undoErr := s.public.Put(ctx, before); undoErr != nil {
			return nil, s.diverged(ctx, id, "mutate", err, undoErr)
		}
		return nil, fmt.Errorf("update lesson: %w", err)
	}
	return after, nil
}

// Update applies an allow-listed patch.
func (s *LessonStore) Update(ctx context.Context, id string, patch model.LessonPatch, guards ...Guard) (*model.Lesson, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.Mutate(ctx, id, func(l *model.Lesson) (bool, error) {
		return patch.ApplyTo(l), nil
	}, guards...)
}

// SetAccessLevel accepts exactly "free" or "premium".
func (s *LessonStore) SetAccessLevel(ctx context.Context, id, level string, guards ...Guard) (*model.Lesson, error) {
	if !model.ValidAccessLevel(level) {
		return nil, model.ErrInvalidAccessLevel
	}
	return s.Mutate(ctx, id, func(l *model.Lesson) (bool, error) {
		if l.AccessLevel == level {
			return false, nil
		}
		l.AccessLevel = level
		return true, nil
	}, guards...)
}

// Delete removes the lesson from both indexes and returns the removed row.
func (s *LessonStore) Delete(ctx context.Context, id string, guards ...Guard) (*model.Lesson, error) {
	var (
		snapshot *model.Lesson
		err      error
	)
	if s.tx != nil {
		err = s.tx.InTx(ctx, func(public, owner repository.LessonIndex) error {
			// An unchanged Mutate takes the row lock so the guards see the final pre-image.
			l, _, err := public.Mutate(ctx, id, func(l *model.Lesson) (bool, error) {
				return false, runGuards(l, guards)
			})
			if err != nil {
				return err
			}
			if err := removeFrom(ctx, public, owner, id); err != nil {
				return err
			}
			snapshot = l
			return nil
		})
	} else {
		snapshot, err = s.deleteMirrored(ctx, id, guards)
	}
	if err != nil {
		return nil, err
	}

	queue.PublishBestEffort(ctx, s.publisher, s.log, queue.NewLessonDeletedEvent(id, snapshot.Creator.Email))
	return snapshot, nil
}

func (s *LessonStore) deleteMirrored(ctx context.Context, id string, guards []Guard) (*model.Lesson, error) {
	defer s.lock(id)()

	snapshot, err := s.public.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := runGuards(snapshot, guards); err != nil {
		return nil, err
	}

	n, err := s.public.Delete(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete lesson: %w", err)
	}
	if n == 0 {
		return nil, model.ErrLessonNotFound
	}

	// A missing owner row is fine: the public delete already brought the two back in line.
	if _, err := s.owner.Delete(ctx, id); err != nil {
		if undoErr := s.public.Put(ctx, snapshot); undoErr != nil {
			return nil, s.diverged(ctx, id, "delete", err, undoErr)
		}
		return nil, fmt.Errorf("delete lesson: %w", err)
	}
	return snapshot, nil
}

func removeFrom(ctx context.Context, public, owner repository.LessonIndex, id string) error {
	n, err := public.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if n == 0 {
		return model.ErrLessonNotFound
	}
	if _, err := owner.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}

func runGuards(l *model.Lesson, guards []Guard) error {
	for _, guard := range guards {
		if err := guard(l); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByCreator removes every lesson whose creator snapshot carries email
// and returns the removed ids. It stops at the first failure and returns the
// ids removed before it.
func (s *LessonStore) DeleteByCreator(ctx context.Context, email string) ([]string, error) {
	lessons, err := s.owner.List(ctx, model.LessonQuery{CreatorEmail: email})
	if err != nil {
		return nil, fmt.Errorf("list lessons by creator: %w", err)
	}

	var removed []string
	for _, l := range lessons {
		_, err := s.Delete(ctx, l.ID)
		switch {
		case err == nil:
			removed = append(removed, l.ID)
		case errors.Is(err, model.ErrLessonNotFound):
			// removed concurrently
		default:
			return removed, fmt.Errorf("delete lesson %s: %w", l.ID, err)
		}
	}
	return removed, nil
}

func (s *LessonStore) ToggleLike(ctx context.Context, id, email string, guards ...Guard) (*model.Lesson, bool, error) {
	var liked bool
	l, err := s.Mutate(ctx, id, func(l *model.Lesson) (bool, error) {
		liked = l.ToggleLike(email)
		return true, nil
	}, guards...)
	return l, liked, err
}

func (s *LessonStore) ToggleFavorite(ctx context.Context, id, email string, guards ...Guard) (*model.Lesson, bool, error) {
	var favorited bool
	l, err := s.Mutate(ctx, id, func(l *model.Lesson) (bool, error) {
		favorited = l.ToggleFavorite(email)
		return true, nil
	}, guards...)
	return l, favorited, err
}

func (s *LessonStore) AddComment(ctx context.Context, id string, comment model.Comment, guards ...Guard) (*model.Lesson, error) {
	return s.Mutate(ctx, id, func(l *model.Lesson) (bool, error) {
		l.AddComment(comment)
		return true, nil
	}, guards...)
}

func (s *LessonStore) MarkReported(ctx context.Context, id string, guards ...Guard) (*model.Lesson, error) {
	return s.Mutate(ctx, id, func(l *model.Lesson) (bool, error) {
		l.MarkReported()
		return true, nil
	}, guards...)
}

func (s *LessonStore) ClearReport(ctx context.Context, id string) (*model.Lesson, error) {
	return s.Mutate(ctx, id, func(l *model.Lesson) (bool, error) {
		return l.ClearReport(), nil
	})
}

// diverged logs and publishes a row the two indexes now disagree on.
func (s *LessonStore) diverged(ctx context.Context, id, step string, cause, undoErr error) error {
	s.log.Error("lesson indexes diverged",
		"lesson_id", id,
		"step", step,
		"owner_index", s.owner.Name(),
		"public_index", s.public.Name(),
		"error", cause,
		"undo_error", undoErr,
	)
	event := queue.NewIndexDivergenceEvent(id, s.public.Name(), step, fmt.Errorf("%v; undo: %v", cause, undoErr))
	queue.PublishBestEffort(ctx, s.publisher, s.log, event)
	return fmt.Errorf("%w: lesson %s (%s): %v", model.ErrIndexDivergence, id, step, undoErr)
}
