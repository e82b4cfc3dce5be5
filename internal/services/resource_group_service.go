package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/repository"
	"github.com/Dias221467/Saviya_Learn/pkg/validation"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ResourceGroupStore interface {
	Create(ctx context.Context, rg *models.ResourceGroup) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ResourceGroup, error)
	List(ctx context.Context) ([]models.ResourceGroup, error)
	Save(ctx context.Context, rg *models.ResourceGroup) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type GroupLinker interface {
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.LearningGroup, error)
	GetGroupsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.LearningGroup, error)
	LinkResourceGroup(ctx context.Context, id, resourceGroupID primitive.ObjectID, link bool) error
}

type ResourceLookup interface {
	GetResourceByID(ctx context.Context, id primitive.ObjectID) (*models.Resource, error)
}

// ResourceGroupService manages admin-curated resource bundles and their
// links to learning groups.
type ResourceGroupService struct {
	repo      ResourceGroupStore
	groups    GroupLinker
	resources ResourceLookup
	notifier  Notifier
}

func NewResourceGroupService(repo ResourceGroupStore, groups GroupLinker, resources ResourceLookup, notifier Notifier) *ResourceGroupService {
	return &ResourceGroupService{repo: repo, groups: groups, resources: resources, notifier: notifier}
}

type ResourceGroupInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func (s *ResourceGroupService) Create(ctx context.Context, in ResourceGroupInput) (*models.ResourceGroup, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	rg := &models.ResourceGroup{
		Name:         in.Name,
		Description:  in.Description,
		Resources:    []primitive.ObjectID{},
		LinkedGroups: []primitive.ObjectID{},
	}
	if err := s.repo.Create(ctx, rg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict("A resource group with this name already exists.")
		}
		return nil, apperr.Internal(err)
	}
	return rg, nil
}

func (s *ResourceGroupService) Get(ctx context.Context, id primitive.ObjectID) (*models.ResourceGroup, error) {
	rg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "Resource group not found.")
	}
	return rg, nil
}

func (s *ResourceGroupService) List(ctx context.Context) ([]models.ResourceGroup, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if items == nil {
		items = []models.ResourceGroup{}
	}
	return items, nil
}

func (s *ResourceGroupService) save(ctx context.Context, rg *models.ResourceGroup) error {
	if err := s.repo.Save(ctx, rg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperr.Conflict("A resource group with this name already exists.")
		}
		return storeErr(err, "Resource group not found.")
	}
	return nil
}

func (s *ResourceGroupService) Update(ctx context.Context, id primitive.ObjectID, in ResourceGroupInput) (*models.ResourceGroup, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	rg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rg.Name = in.Name
	rg.Description = in.Description
	if err := s.save(ctx, rg); err != nil {
		return nil, err
	}
	return rg, nil
}

// Delete removes the bundle and unlinks it from every learning group.
func (s *ResourceGroupService) Delete(ctx context.Context, id primitive.ObjectID) error {
	rg, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	for _, gid := range rg.LinkedGroups {
		if err := s.groups.LinkResourceGroup(ctx, gid, id, false); err != nil && !errors.Is(err, repository.ErrNotFound) {
			logrus.WithError(err).WithField("groupID", gid.Hex()).Warn("Failed to unlink resource group")
		}
	}
	return storeErr(s.repo.Delete(ctx, id), "Resource group not found.")
}

// AddResource appends a resource and notifies every member of every linked
// learning group.
func (s *ResourceGroupService) AddResource(ctx context.Context, id, resourceID primitive.ObjectID) (*models.ResourceGroup, error) {
	rg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.resources.GetResourceByID(ctx, resourceID)
	if err != nil {
		return nil, storeErr(err, "Resource not found.")
	}
	if models.ContainsID(rg.Resources, resourceID) {
		return nil, apperr.Validation("Resource already in group.")
	}
	rg.Resources = append(rg.Resources, resourceID)
	if err := s.save(ctx, rg); err != nil {
		return nil, err
	}

	linked, err := s.groups.GetGroupsByIDs(ctx, rg.LinkedGroups)
	if err != nil {
		logrus.WithError(err).Warn("Cannot notify linked groups of new resource")
		return rg, nil
	}
	for _, g := range linked {
		s.notifier.SendToUsers(ctx, g.MemberIDs(), NotifyInput{
			Type:     models.NotificationResourceAdded,
			Title:    "New resource in " + rg.Name,
			Message:  res.Title + " was added to " + rg.Name + ".",
			Data:     models.NotificationData{GroupID: idPtr(g.ID), ResourceID: idPtr(resourceID)},
			Priority: models.PriorityLow,
		})
	}
	return rg, nil
}

func (s *ResourceGroupService) RemoveResource(ctx context.Context, id, resourceID primitive.ObjectID) (*models.ResourceGroup, error) {
	rg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.ContainsID(rg.Resources, resourceID) {
		return nil, apperr.NotFound("Resource not in group.")
	}
	rg.Resources = models.RemoveID(rg.Resources, resourceID)
	if err := s.save(ctx, rg); err != nil {
		return nil, err
	}
	return rg, nil
}

func (s *ResourceGroupService) LinkGroup(ctx context.Context, id, groupID primitive.ObjectID) (*models.ResourceGroup, error) {
	rg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.groups.GetGroupByID(ctx, groupID); err != nil {
		return nil, storeErr(err, "Group not found.")
	}
	if models.ContainsID(rg.LinkedGroups, groupID) {
		return nil, apperr.Validation("Group already linked.")
	}
	rg.LinkedGroups = append(rg.LinkedGroups, groupID)
	if err := s.save(ctx, rg); err != nil {
		return nil, err
	}
	if err := s.groups.LinkResourceGroup(ctx, groupID, id, true); err != nil {
		return nil, storeErr(err, "Group not found.")
	}
	return rg, nil
}

func (s *ResourceGroupService) UnlinkGroup(ctx context.Context, id, groupID primitive.ObjectID) (*models.ResourceGroup, error) {
	rg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.ContainsID(rg.LinkedGroups, groupID) {
		return nil, apperr.NotFound("Group not linked.")
	}
	rg.LinkedGroups = models.RemoveID(rg.LinkedGroups, groupID)
	if err := s.save(ctx, rg); err != nil {
		return nil, err
	}
	if err := s.groups.LinkResourceGroup(ctx, groupID, id, false); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}
	return rg, nil
}
