package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dias221467/Saviya_Learn/internal/apperr"
	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type notificationFixture struct {
	store     *fakeNotifications
	prefs     *fakePrefs
	users     *fakeUsers
	mailer    *recordingMailer
	publisher *recordingPublisher
	svc       *NotificationService
}

func newNotificationFixture() *notificationFixture {
	f := &notificationFixture{
		store:     &fakeNotifications{},
		prefs:     newFakePrefs(),
		users:     newFakeUsers(),
		mailer:    &recordingMailer{},
		publisher: &recordingPublisher{},
	}
	f.svc = NewNotificationService(f.store, f.prefs, f.users, f.publisher, f.mailer, "http://localhost:3000/")
	return f
}

func TestNotifyDefaultsAndChannels(t *testing.T) {
	f := newNotificationFixture()
	u := f.users.add("amal@example.com")

	n, err := f.svc.Notify(context.Background(), NotifyInput{
		UserID:  u.ID,
		Type:    models.NotificationGroupInvite,
		Title:   "Invite",
		Message: "Join us",
		Data:    models.NotificationData{Link: "/groups/1"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PriorityMedium, n.Priority)
	assert.True(t, n.Delivered)
	assert.True(t, n.EmailSent)
	assert.NotNil(t, n.EmailSentAt)

	require.Len(t, f.publisher.named(EventNewNotification), 1)
	assert.Equal(t, "user-"+u.ID.Hex(), f.publisher.named(EventNewNotification)[0].room)

	require.Equal(t, 1, f.mailer.count())
	assert.Equal(t, "amal@example.com", f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].HTML, "http://localhost:3000/groups/1")
}

func TestNotifyRespectsEmailCategoryToggle(t *testing.T) {
	f := newNotificationFixture()
	u := f.users.add("kasun@example.com")
	f.prefs.set(u.ID, func(p *models.UserPreferences) { p.Email.GroupInvites = false })

	n, err := f.svc.Notify(context.Background(), NotifyInput{UserID: u.ID, Type: models.NotificationGroupInvite, Title: "t", Message: "m"})
	require.NoError(t, err)

	assert.False(t, n.EmailSent)
	assert.Equal(t, 0, f.mailer.count())
	assert.Len(t, f.publisher.named(EventNewNotification), 1)
}

func TestNotifyEmailDisabledEvenWithInAppOff(t *testing.T) {
	f := newNotificationFixture()
	u := f.users.add("nimali@example.com")
	f.prefs.set(u.ID, func(p *models.UserPreferences) {
		p.Email.Enabled = false
		p.InApp.Enabled = false
	})

	n, err := f.svc.Notify(context.Background(), NotifyInput{UserID: u.ID, Type: models.NotificationSessionReminder, Title: "t", Message: "m"})
	require.NoError(t, err)

	assert.False(t, n.EmailSent)
	assert.False(t, n.Delivered)
	assert.Equal(t, 0, f.mailer.count())
	assert.Empty(t, f.publisher.events)
	assert.Len(t, f.store.forUser(u.ID), 1)
}

func TestNotifyUnmappedTypeNeverEmails(t *testing.T) {
	f := newNotificationFixture()
	u := f.users.add("ruwan@example.com")

	n, err := f.svc.Notify(context.Background(), NotifyInput{UserID: u.ID, Type: models.NotificationSystem, Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.False(t, n.EmailSent)
	assert.Equal(t, 0, f.mailer.count())
}

func TestNotifySideChannelFailuresAreSwallowed(t *testing.T) {
	f := newNotificationFixture()
	u := f.users.add("dilan@example.com")
	f.publisher.fail = errors.New("socket gone")
	f.mailer.fail = errors.New("smtp down")

	n, err := f.svc.Notify(context.Background(), NotifyInput{UserID: u.ID, Type: models.NotificationGroupInvite, Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.False(t, n.Delivered)
	assert.False(t, n.EmailSent)
}

func TestNotifyEmailStampNeedsStoreWrite(t *testing.T) {
	f := newNotificationFixture()
	f.store.markFail = errors.New("write timeout")
	u := f.users.add("ruwan@example.com")

	n, err := f.svc.Notify(context.Background(), NotifyInput{UserID: u.ID, Type: models.NotificationGroupInvite, Title: "t", Message: "m"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.mailer.count())
	assert.False(t, n.EmailSent)
	assert.Nil(t, n.EmailSentAt)
}

func TestNotifyFallsBackToDefaultPreferences(t *testing.T) {
	f := newNotificationFixture()
	u := f.users.add("sahan@example.com")
	f.prefs.fail = errStoreDown

	n, err := f.svc.Notify(context.Background(), NotifyInput{UserID: u.ID, Type: models.NotificationResourceAdded, Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.True(t, n.EmailSent)
}

func TestNotifyStoreFailureIsReturned(t *testing.T) {
	f := newNotificationFixture()
	f.store.fail = errStoreDown

	_, err := f.svc.Notify(context.Background(), NotifyInput{UserID: primitive.NewObjectID(), Type: models.NotificationSystem, Title: "t", Message: "m"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}

func TestNotifyRejectsUnknownTypeAndPriority(t *testing.T) {
	f := newNotificationFixture()

	_, err := f.svc.Notify(context.Background(), NotifyInput{UserID: primitive.NewObjectID(), Type: "party"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Notify(context.Background(), NotifyInput{UserID: primitive.NewObjectID(), Type: models.NotificationSystem, Priority: "critical"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestBroadcastCountsAttempts(t *testing.T) {
	f := newNotificationFixture()
	var ids []primitive.ObjectID
	for i := 0; i < 5; i++ {
		u := f.users.add("user" + string(rune('a'+i)) + "@example.com")
		ids = append(ids, u.ID)
	}
	f.prefs.set(ids[0], func(p *models.UserPreferences) { p.Email.Enabled = false })
	f.prefs.set(ids[1], func(p *models.UserPreferences) { p.Email.AdminAnnouncements = false })

	count, err := f.svc.BroadcastToAll(context.Background(), NotifyInput{
		Type:    models.NotificationAdminAnnouncement,
		Title:   "Maintenance",
		Message: "Tonight",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, count)
	for _, id := range ids {
		assert.Len(t, f.store.forUser(id), 1)
	}
	assert.Equal(t, 3, f.mailer.count())
}

func TestAdminSendValidatesInput(t *testing.T) {
	f := newNotificationFixture()
	u := f.users.add("admin-target@example.com")

	_, err := f.svc.AdminSend(context.Background(), AdminSendInput{Title: "t", Message: "m"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.AdminSend(context.Background(), AdminSendInput{UserIDs: []string{"nope"}, Title: "t", Message: "m"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	count, err := f.svc.AdminSend(context.Background(), AdminSendInput{UserIDs: []string{u.ID.Hex()}, Title: "t", Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, models.NotificationAdminAnnouncement, f.store.forUser(u.ID)[0].Type)
}

func TestReadSideOperations(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()
	u := f.users.add("reader@example.com")

	var first *models.Notification
	for i := 0; i < 3; i++ {
		n, err := f.svc.Notify(ctx, NotifyInput{UserID: u.ID, Type: models.NotificationSystem, Title: "t", Message: "m"})
		require.NoError(t, err)
		if first == nil {
			first = n
		}
	}

	page, err := f.svc.List(ctx, u.ID, models.NotificationFilter{}, models.NewPagination(1, 20, 20))
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.EqualValues(t, 3, page.UnreadCount)

	_, err = f.svc.MarkAsRead(ctx, primitive.NewObjectID(), first.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	read, err := f.svc.MarkAsRead(ctx, u.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	unread, err := f.svc.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	deleted, err := f.svc.DeleteAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	marked, err := f.svc.MarkAllAsRead(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, marked)
}

func TestUpdatePreferencesValidatesQuietHours(t *testing.T) {
	f := newNotificationFixture()
	ctx := context.Background()
	userID := primitive.NewObjectID()

	prefs, err := f.svc.GetPreferences(ctx, userID)
	require.NoError(t, err)

	prefs.QuietHours.StartTime = "25:99"
	_, err = f.svc.UpdatePreferences(ctx, userID, prefs)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	prefs.QuietHours.StartTime = "21:30"
	prefs.Email.ChatMessages = true
	prefs.UserID = primitive.NewObjectID()
	saved, err := f.svc.UpdatePreferences(ctx, userID, prefs)
	require.NoError(t, err)
	assert.Equal(t, userID, saved.UserID)

	again, err := f.svc.GetPreferences(ctx, userID)
	require.NoError(t, err)
	assert.True(t, again.Email.ChatMessages)
	assert.Equal(t, "21:30", again.QuietHours.StartTime)
}
