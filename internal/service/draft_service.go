package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"stockdesk/internal/domain"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ValidationError carries the field to message map that blocked a submit.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "draft is invalid: " + strings.Join(keys, ", ")
}

// SubmitResult reports what a successful submit did.
type SubmitResult struct {
	Item    *domain.Item `json:"item"`
	Created bool         `json:"created"`
}

// DraftDefaults seed new drafts.
type DraftDefaults struct {
	DefaultStock        int
	DefaultReorderLevel int
}

// DraftService drives the add and edit inventory forms.
type DraftService interface {
	Open(ctx context.Context) (*domain.Draft, error)
	OpenFromItem(ctx context.Context, itemID uuid.UUID) (*domain.Draft, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Draft, error)
	// Apply reduces one action into the draft. A non-zero expectedVersion must match the stored version.
	Apply(ctx context.Context, id uuid.UUID, expectedVersion int64, action domain.Action) (*domain.Draft, error)
	Validate(ctx context.Context, id uuid.UUID) (map[string]string, error)
	Submit(ctx context.Context, id uuid.UUID) (*SubmitResult, error)
	Discard(ctx context.Context, id uuid.UUID) error
}

type draftService struct {
	drafts    repository.DraftStore
	inventory InventoryService
	defaults  DraftDefaults
	logger    *zap.Logger
	now       func() time.Time
}

// NewDraftService creates a new instance of DraftService
func NewDraftService(drafts repository.DraftStore, inventory InventoryService, defaults DraftDefaults, logger *zap.Logger) DraftService {
	return &draftService{
		drafts:    drafts,
		inventory: inventory,
		defaults:  defaults,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *draftService) Open(ctx context.Context) (*domain.Draft, error) {
	d := domain.NewDraft(s.defaults.DefaultStock, s.defaults.DefaultReorderLevel, s.now().UTC())
	if err := s.drafts.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to open draft: %w", err)
	}
	s.logger.Debug("Draft opened", zap.String("draft_id", d.ID.String()))
	return d, nil
}

func (s *draftService) OpenFromItem(ctx context.Context, itemID uuid.UUID) (*domain.Draft, error) {
	item, err := s.inventory.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}

	d := domain.DraftFromItem(item, s.defaults.DefaultStock, s.now().UTC())
	if err := s.drafts.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to open edit draft: %w", err)
	}
	s.logger.Debug("Edit draft opened",
		zap.String("draft_id", d.ID.String()),
		zap.String("item_id", itemID.String()),
	)
	return d, nil
}

func (s *draftService) Get(ctx context.Context, id uuid.UUID) (*domain.Draft, error) {
	return s.drafts.Get(ctx, id)
}

func (s *draftService) Apply(ctx context.Context, id uuid.UUID, expectedVersion int64, action domain.Action) (*domain.Draft, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion > 0 && d.Version != expectedVersion {
		return nil, repository.ErrDraftConflict
	}

	next, err := domain.Reduce(d, action, s.now().UTC())
	if err != nil {
		s.logger.Debug("Draft action rejected",
			zap.String("draft_id", id.String()),
			zap.String("action", string(action.Type)),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.drafts.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *draftService) Validate(ctx context.Context, id uuid.UUID) (map[string]string, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return FieldErrors(d), nil
}

func (s *draftService) Submit(ctx context.Context, id uuid.UUID) (*SubmitResult, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if errs := FieldErrors(d); len(errs) > 0 {
		d.Errors = errs
		if err := s.drafts.Save(ctx, d); err != nil {
			return nil, err
		}
		return nil, &ValidationError{Fields: errs}
	}

	payload := domain.ToSubmitPayload(d)
	result := &SubmitResult{Created: d.ItemID == nil}
	if result.Created {
		result.Item, err = s.inventory.Create(ctx, payload)
	} else {
		result.Item, err = s.inventory.Update(ctx, *d.ItemID, payload)
	}
	if err != nil {
		s.logger.Error("Draft submit failed", zap.String("draft_id", id.String()), zap.Error(err))
		d.Errors = map[string]string{domain.FieldSubmit: submitFailureMessage(err)}
		if saveErr := s.drafts.Save(ctx, d); saveErr != nil {
			s.logger.Warn("Failed to record submit error on draft", zap.String("draft_id", id.String()), zap.Error(saveErr))
		}
		return nil, err
	}

	if err := s.drafts.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrDraftNotFound) {
		s.logger.Warn("Failed to discard submitted draft", zap.String("draft_id", id.String()), zap.Error(err))
	}

	s.logger.Info("Draft submitted",
		zap.String("draft_id", id.String()),
		zap.String("item_id", result.Item.ID.String()),
		zap.Bool("created", result.Created),
	)
	return result, nil
}

func (s *draftService) Discard(ctx context.Context, id uuid.UUID) error {
	return s.drafts.Delete(ctx, id)
}

// FieldErrors is domain.Validate plus the submit-time image precondition.
func FieldErrors(d *domain.Draft) map[string]string {
	errs := domain.Validate(d)
	if err := domain.CheckSubmittable(d); err != nil {
		errs[domain.FieldImages] = "At least one product image is required"
	}
	return errs
}

func submitFailureMessage(err error) string {
	if errors.Is(err, repository.ErrItemNotFound) {
		return "The item being edited no longer exists"
	}
	return "Failed to save item. Please try again."
}
