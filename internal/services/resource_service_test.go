package services

import (
	"context"
	"testing"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/authz"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type resourceFixture struct {
	groups    *fakeGroups
	users     *fakeUsers
	resources *fakeResources
	notifier  *recordingNotifier
	svc       *ResourceService
	group     *models.LearningGroup
	owner     Actor
	member    Actor
	outsider  Actor
}

func newResourceFixture() *resourceFixture {
	f := &resourceFixture{
		groups:    newFakeGroups(),
		users:     newFakeUsers(),
		resources: newFakeResources(),
		notifier:  &recordingNotifier{},
	}
	f.owner = Actor{ID: f.users.add("owner@example.com").ID, Role: authz.RoleUser}
	f.member = Actor{ID: f.users.add("member@example.com").ID, Role: authz.RoleUser}
	f.outsider = Actor{ID: f.users.add("outsider@example.com").ID, Role: authz.RoleUser}
	f.group = seedGroup(f.groups, f.owner.ID, f.member.ID)
	f.svc = NewResourceService(f.resources, f.groups, f.users, f.notifier, &recordingActivity{})
	return f
}

func (f *resourceFixture) add(t *testing.T, a Actor) *models.Resource {
	t.Helper()
	res, err := f.svc.Add(context.Background(), a, f.group.ID, ResourceInput{Title: "Past papers", Link: "https://drive.example.com/papers"})
	require.NoError(t, err)
	return res
}

func TestAddResourceNotifiesOtherMembers(t *testing.T) {
	f := newResourceFixture()
	res := f.add(t, f.owner)

	assert.Equal(t, models.ResourceTypeDriveLink, res.Type)
	sent := f.notifier.ofType(models.NotificationResourceAdded)
	require.Len(t, sent, 1)
	assert.Equal(t, f.member.ID, sent[0].UserID)
	assert.Equal(t, models.PriorityLow, sent[0].Priority)

	u, err := f.users.GetUserByID(context.Background(), f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Reputation.ResourcesShared)
}

func TestAddResourceRequiresMembership(t *testing.T) {
	f := newResourceFixture()
	_, err := f.svc.Add(context.Background(), f.outsider, f.group.ID, ResourceInput{Title: "x", Link: "https://example.com"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Add(context.Background(), f.owner, f.group.ID, ResourceInput{Title: "x", Link: "not a url"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestViewCountsAndOwnership(t *testing.T) {
	f := newResourceFixture()
	ctx := context.Background()
	res := f.add(t, f.owner)

	viewed, err := f.svc.View(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), viewed.Views)

	title := "Renamed"
	_, err = f.svc.Update(ctx, f.member, res.ID, ResourceUpdate{Title: &title})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	updated, err := f.svc.Update(ctx, f.owner, res.ID, ResourceUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)

	admin := Actor{ID: primitive.NewObjectID(), Role: authz.RoleAdmin}
	require.NoError(t, f.svc.Delete(ctx, admin, res.ID))
	_, err = f.svc.View(ctx, res.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestResourceGroupLinking(t *testing.T) {
	f := newResourceFixture()
	ctx := context.Background()
	res := f.add(t, f.owner)
	f.notifier.sent = nil

	svc := NewResourceGroupService(newFakeResourceGroups(), f.groups, f.resources, f.notifier)
	rg, err := svc.Create(ctx, ResourceGroupInput{Name: "O/L Science"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, ResourceGroupInput{Name: "O/L Science"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = svc.LinkGroup(ctx, rg.ID, f.group.ID)
	require.NoError(t, err)
	_, err = svc.LinkGroup(ctx, rg.ID, f.group.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "Group already linked.", apperr.Message(err))

	g, err := f.groups.GetGroupByID(ctx, f.group.ID)
	require.NoError(t, err)
	assert.Contains(t, g.ResourceGroups, rg.ID)

	rg, err = svc.AddResource(ctx, rg.ID, res.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{res.ID}, rg.Resources)
	assert.Len(t, f.notifier.ofType(models.NotificationResourceAdded), 2)

	_, err = svc.AddResource(ctx, rg.ID, primitive.NewObjectID())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.UnlinkGroup(ctx, rg.ID, f.group.ID)
	require.NoError(t, err)
	g, err = f.groups.GetGroupByID(ctx, f.group.ID)
	require.NoError(t, err)
	assert.NotContains(t, g.ResourceGroups, rg.ID)
}

func TestResourceRequestLifecycle(t *testing.T) {
	f := newResourceFixture()
	ctx := context.Background()
	publisher := &recordingPublisher{}
	requests := newFakeRequests()
	svc := NewResourceRequestService(requests, f.groups, f.resources, f.users, f.notifier, publisher, &recordingActivity{})

	req, err := svc.Create(ctx, f.member, RequestInput{Title: "Waves notes", GroupID: f.group.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, models.RequestOpen, req.Status)
	assert.Len(t, publisher.named(EventNewResourceRequest), 1)
	assert.Len(t, f.notifier.ofType(models.NotificationResourceRequest), 1)

	_, err = svc.Create(ctx, f.outsider, RequestInput{Title: "Sneaky", GroupID: f.group.ID.Hex()})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.Respond(ctx, f.owner, req.ID, RespondInput{ResourceID: primitive.NewObjectID().Hex()})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	res := f.add(t, f.owner)
	answered, err := svc.Respond(ctx, f.owner, req.ID, RespondInput{ResourceID: res.ID.Hex(), Message: "here"})
	require.NoError(t, err)
	require.Len(t, answered.Responses, 1)
	assert.Len(t, publisher.named(EventRequestResponse), 1)
	assert.Len(t, f.notifier.ofType(models.NotificationRequestResponse), 1)

	u, err := f.users.GetUserByID(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, u.Reputation.ResourcesShared)

	_, err = svc.Fulfill(ctx, f.owner, req.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	done, err := svc.Fulfill(ctx, f.member, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestFulfilled, done.Status)

	admin := Actor{ID: primitive.NewObjectID(), Role: authz.RoleAdmin}
	closed, err := svc.Close(ctx, admin, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestClosed, closed.Status)

	_, err = svc.Respond(ctx, f.owner, req.ID, RespondInput{ResourceID: res.ID.Hex()})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[models.RequestClosed])
	assert.Equal(t, int64(0), stats[models.RequestOpen])
}
