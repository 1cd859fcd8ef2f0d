package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/model"
	"github.com/Freeeeeet/room_booking/internal/repository"
)

type FacilityService struct {
	facilities FacilityStore
	logger     *zap.Logger
}

func NewFacilityService(facilities FacilityStore, logger *zap.Logger) *FacilityService {
	return &FacilityService{
		facilities: facilities,
		logger:     logger,
	}
}

func (s *FacilityService) Create(ctx context.Context, actor *model.Account, name, description string) (*model.Facility, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name is required")
	}

	facility := &model.Facility{Name: name, Description: description}
	err := s.facilities.Create(ctx, facility)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("%w: facility %q", ErrDuplicate, name)
	}
	if err != nil {
		return nil, fmt.Errorf("create facility: %w", err)
	}

	s.logger.Info("Facility created",
		zap.Int64("facility_id", facility.ID),
		zap.String("name", facility.Name),
	)

	return facility, nil
}

func (s *FacilityService) List(ctx context.Context) ([]*model.Facility, error) {
	return s.facilities.List(ctx)
}

func (s *FacilityService) Delete(ctx context.Context, actor *model.Account, id int64) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	err := s.facilities.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrFacilityNotFound
	}
	if err != nil {
		return fmt.Errorf("delete facility: %w", err)
	}

	s.logger.Info("Facility deleted", zap.Int64("facility_id", id))
	return nil
}
