package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/repository"
	"github.com/Dias221467/Saviya_Learn/pkg/email"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeNotifications struct {
	mu    sync.Mutex
	items    []*models.Notification
	fail     error
	markFail error
}

func (f *fakeNotifications) CreateNotification(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()
	n.ExpiresAt = n.CreatedAt.Add(models.NotificationTTL)
	f.items = append(f.items, n)
	return nil
}

func (f *fakeNotifications) forUser(userID primitive.ObjectID) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.items {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out
}

func (f *fakeNotifications) ListForUser(_ context.Context, userID primitive.ObjectID, _ models.NotificationFilter, _ models.Pagination) ([]models.Notification, int64, error) {
	out := f.forUser(userID)
	return out, int64(len(out)), nil
}

func (f *fakeNotifications) CountUnread(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	for _, item := range f.forUser(userID) {
		if !item.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) find(id primitive.ObjectID) *models.Notification {
	for _, n := range f.items {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (f *fakeNotifications) MarkAsRead(_ context.Context, id, userID primitive.ObjectID) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.find(id)
	if n == nil || n.UserID != userID {
		return nil, repository.ErrNotFound
	}
	n.Read = true
	return n, nil
}

func (f *fakeNotifications) MarkAllAsRead(_ context.Context, userID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, n := range f.items {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifications) MarkEmailSent(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markFail != nil {
		return f.markFail
	}
	if n := f.find(id); n != nil {
		n.EmailSent = true
		n.EmailSentAt = &at
	}
	return nil
}

func (f *fakeNotifications) MarkDelivered(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := f.find(id); n != nil {
		n.Delivered = true
		n.DeliveredAt = &at
	}
	return nil
}

func (f *fakeNotifications) DeleteNotification(_ context.Context, id, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.items {
		if n.ID == id && n.UserID == userID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeNotifications) DeleteRead(_ context.Context, userID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.items[:0]
	var removed int64
	for _, n := range f.items {
		if n.UserID == userID && n.Read {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	f.items = kept
	return removed, nil
}

func (f *fakeNotifications) DeleteExpiredNotifications(context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeNotifications) Stats(context.Context) (*models.NotificationStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.NotificationStats{Total: int64(len(f.items))}, nil
}

type fakePrefs struct {
	mu    sync.Mutex
	prefs map[primitive.ObjectID]*models.UserPreferences
	fail  error
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{prefs: make(map[primitive.ObjectID]*models.UserPreferences)}
}

func (f *fakePrefs) GetOrCreate(_ context.Context, userID primitive.ObjectID) (*models.UserPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	p, ok := f.prefs[userID]
	if !ok {
		p = models.DefaultPreferences(userID)
		f.prefs[userID] = p
	}
	cp := *p
	return &cp, nil
}

func (f *fakePrefs) Save(_ context.Context, prefs *models.UserPreferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *prefs
	f.prefs[prefs.UserID] = &cp
	return nil
}

func (f *fakePrefs) set(userID primitive.ObjectID, mutate func(*models.UserPreferences)) {
	p := models.DefaultPreferences(userID)
	mutate(p)
	f.prefs[userID] = p
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUsers) add(emailAddr string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{
		ID:     primitive.NewObjectID(),
		Email:  emailAddr,
		Role:   "user",
		Status: models.UserStatusActive,
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, emailAddr string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, emailAddr) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) ListActiveUserIDs(context.Context) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []primitive.ObjectID
	for id, u := range f.users {
		if u.Status == models.UserStatusActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeUsers) IncrementReputation(_ context.Context, id primitive.ObjectID, counter string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch counter {
	case "sessions_taught":
		u.Reputation.SessionsTaught += delta
	case "resources_shared":
		u.Reputation.ResourcesShared += delta
	case "points":
		u.Reputation.Points += delta
	}
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []email.Message
	fail error
}

func (m *recordingMailer) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type published struct {
	room  string
	event string
	data  interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	fail   error
}

func (p *recordingPublisher) record(room, event string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, published{room: room, event: event, data: data})
	return nil
}

func (p *recordingPublisher) ToUser(userID primitive.ObjectID, event string, data interface{}) error {
	return p.record("user-"+userID.Hex(), event, data)
}

func (p *recordingPublisher) ToGroup(groupID primitive.ObjectID, event string, data interface{}) error {
	return p.record("group-"+groupID.Hex(), event, data)
}

func (p *recordingPublisher) ToAdmins(event string, data interface{}) error {
	return p.record("admins", event, data)
}

func (p *recordingPublisher) named(event string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []NotifyInput
}

func (r *recordingNotifier) Notify(_ context.Context, in NotifyInput) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, in)
	return &models.Notification{ID: primitive.NewObjectID(), UserID: in.UserID, Type: in.Type}, nil
}

func (r *recordingNotifier) SendToUsers(ctx context.Context, ids []primitive.ObjectID, in NotifyInput) int {
	for _, id := range ids {
		in.UserID = id
		_, _ = r.Notify(ctx, in)
	}
	return len(ids)
}

func (r *recordingNotifier) ofType(t string) []NotifyInput {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []NotifyInput
	for _, in := range r.sent {
		if in.Type == t {
			out = append(out, in)
		}
	}
	return out
}

type recordingActivity struct {
	mu      sync.Mutex
	actions []string
}

func (r *recordingActivity) Log(_ context.Context, _ primitive.ObjectID, action string, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

type fakeGroups struct {
	mu     sync.Mutex
	groups map[primitive.ObjectID]*models.LearningGroup
	// noUniqueIndex makes CreateGroup accept duplicate keys.
	noUniqueIndex bool
}

func newFakeGroups() *fakeGroups {
	return &fakeGroups{groups: make(map[primitive.ObjectID]*models.LearningGroup)}
}

func cloneGroup(g *models.LearningGroup) *models.LearningGroup {
	cp := *g
	cp.Members = append([]models.GroupMember(nil), g.Members...)
	return &cp
}

func (f *fakeGroups) CreateGroup(_ context.Context, g *models.LearningGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.groups {
		if !f.noUniqueIndex && existing.Grade == g.Grade && existing.Subject == g.Subject && existing.Topic == g.Topic {
			return repository.ErrDuplicate
		}
	}
	g.ID = primitive.NewObjectID()
	f.groups[g.ID] = cloneGroup(g)
	return nil
}

func (f *fakeGroups) FindByKey(_ context.Context, grade, subject, topic string) (*models.LearningGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.Grade == grade && g.Subject == subject && g.Topic == topic {
			return cloneGroup(g), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGroups) GetGroupByID(_ context.Context, id primitive.ObjectID) (*models.LearningGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneGroup(g), nil
}

func (f *fakeGroups) SaveMembers(_ context.Context, id primitive.ObjectID, members []models.GroupMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return repository.ErrNotFound
	}
	g.Members = append([]models.GroupMember(nil), members...)
	return nil
}

func (f *fakeGroups) UpdateGroup(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.LearningGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			g.Status = v.(string)
		case "max_members":
			g.MaxMembers = v.(int)
		case "description":
			g.Description = v.(string)
		}
	}
	return cloneGroup(g), nil
}

func (f *fakeGroups) DeleteGroup(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.groups, id)
	return nil
}

func (f *fakeGroups) SearchGroups(context.Context, models.GroupFilter, int) ([]models.LearningGroup, error) {
	return nil, nil
}

func (f *fakeGroups) ListGroupsForMember(_ context.Context, userID primitive.ObjectID) ([]models.LearningGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LearningGroup
	for _, g := range f.groups {
		if g.IsMember(userID) {
			out = append(out, *cloneGroup(g))
		}
	}
	return out, nil
}

func (f *fakeGroups) ListGroups(context.Context, models.GroupFilter, models.Pagination) ([]models.LearningGroup, int64, error) {
	return nil, 0, nil
}

func (f *fakeGroups) GetGroupsByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.LearningGroup, error) {
	var out []models.LearningGroup
	for _, id := range ids {
		if g, err := f.GetGroupByID(context.Background(), id); err == nil {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGroups) LinkResourceGroup(_ context.Context, id, rgID primitive.ObjectID, link bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	if !ok {
		return repository.ErrNotFound
	}
	if link {
		g.ResourceGroups = append(g.ResourceGroups, rgID)
	} else {
		g.ResourceGroups = models.RemoveID(g.ResourceGroups, rgID)
	}
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[primitive.ObjectID]*models.Session
	writes   int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[primitive.ObjectID]*models.Session)}
}

func cloneSession(s *models.Session) *models.Session {
	cp := *s
	cp.Attendees = append([]models.Attendee(nil), s.Attendees...)
	return &cp
}

func (f *fakeSessions) CreateSession(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = primitive.NewObjectID()
	s.CreatedAt = time.Now()
	f.sessions[s.ID] = cloneSession(s)
	return nil
}

func (f *fakeSessions) GetSessionByID(_ context.Context, id primitive.ObjectID) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneSession(s), nil
}

func (f *fakeSessions) UpdateSession(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	f.writes++
	for k, v := range fields {
		switch k {
		case "status":
			s.Status = v.(string)
		case "started_at":
			t := v.(time.Time)
			s.StartedAt = &t
		case "ended_at":
			t := v.(time.Time)
			s.EndedAt = &t
		case "attendees":
			s.Attendees = append([]models.Attendee(nil), v.([]models.Attendee)...)
		case "title":
			s.Title = v.(string)
		}
	}
	return cloneSession(s), nil
}

func (f *fakeSessions) SaveAttendees(_ context.Context, id primitive.ObjectID, attendees []models.Attendee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.writes++
	s.Attendees = append([]models.Attendee(nil), attendees...)
	return nil
}

func (f *fakeSessions) DeleteSession(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessions) ListSessions(context.Context, models.SessionFilter, models.Pagination) ([]models.Session, int64, error) {
	return nil, 0, nil
}

func (f *fakeSessions) ListDueForReminder(_ context.Context, now, before time.Time) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Session
	for _, s := range f.sessions {
		if s.Status == models.SessionScheduled && s.ScheduledAt.After(now) && !s.ScheduledAt.After(before) && s.ReminderSentAt == nil {
			out = append(out, *cloneSession(s))
		}
	}
	return out, nil
}

func (f *fakeSessions) MarkReminderSent(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.ReminderSentAt = &at
	return nil
}

var errStoreDown = errors.New("store unavailable")

func (f *fakeUsers) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return nil, repository.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	f.users[u.ID] = &cp
	return u, nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "verified":
			u.Verified = v.(bool)
		case "password_hash":
			u.HashedPassword = v.(string)
		case "role":
			u.Role = v.(string)
		case "status":
			u.Status = v.(string)
		case "profile.name":
			u.Profile.Name = v.(string)
		case "profile.bio":
			u.Profile.Bio = v.(string)
		case "skills":
			u.Skills = v.([]models.Skill)
		}
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdateLastActive(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.LastActiveAt = time.Now()
	}
	return nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsers) ListUsers(context.Context, models.UserFilter, models.Pagination) ([]models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]*models.Token
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: make(map[string]*models.Token)}
}

func (f *fakeTokens) Create(_ context.Context, t *models.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = primitive.NewObjectID()
	cp := *t
	f.tokens[t.Token] = &cp
	return nil
}

func (f *fakeTokens) Consume(_ context.Context, token, purpose string) (*models.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok || t.Purpose != purpose || !t.ExpiresAt.After(time.Now()) {
		return nil, repository.ErrNotFound
	}
	delete(f.tokens, token)
	return t, nil
}

func (f *fakeTokens) DeleteForUser(_ context.Context, userID primitive.ObjectID, purpose string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, t := range f.tokens {
		if t.UserID == userID && t.Purpose == purpose {
			delete(f.tokens, k)
		}
	}
	return nil
}

func (f *fakeTokens) Delete(_ context.Context, token, purpose string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[token]; ok && t.Purpose == purpose {
		delete(f.tokens, token)
	}
	return nil
}

// latest returns any live token with purpose for userID.
func (f *fakeTokens) latest(userID primitive.ObjectID, purpose string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, t := range f.tokens {
		if t.UserID == userID && t.Purpose == purpose {
			return k
		}
	}
	return ""
}

func (f *fakeTokens) count(userID primitive.ObjectID, purpose string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tokens {
		if t.UserID == userID && t.Purpose == purpose {
			n++
		}
	}
	return n
}
