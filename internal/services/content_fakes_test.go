package services

import (
	"context"
	"sync"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/models"
	"github.com/Dias221467/Saviya_Learn/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// seedGroup stores an active group with the given owner and members.
func seedGroup(groups *fakeGroups, owner primitive.ObjectID, members ...primitive.ObjectID) *models.LearningGroup {
	g := &models.LearningGroup{
		Grade: "9", Subject: "Science", Topic: primitive.NewObjectID().Hex(),
		MaxMembers: 20,
		Status:     models.GroupStatusActive,
		Members:    []models.GroupMember{{UserID: owner, Role: models.GroupRoleOwner}},
	}
	for _, m := range members {
		g.Members = append(g.Members, models.GroupMember{UserID: m, Role: models.GroupRoleMember})
	}
	_ = groups.CreateGroup(context.Background(), g)
	return g
}

type fakeResources struct {
	mu        sync.Mutex
	resources map[primitive.ObjectID]*models.Resource
}

func newFakeResources() *fakeResources {
	return &fakeResources{resources: make(map[primitive.ObjectID]*models.Resource)}
}

func (f *fakeResources) CreateResource(_ context.Context, res *models.Resource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res.ID = primitive.NewObjectID()
	res.CreatedAt = time.Now()
	cp := *res
	f.resources[res.ID] = &cp
	return nil
}

func (f *fakeResources) GetResourceByID(_ context.Context, id primitive.ObjectID) (*models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.resources[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (f *fakeResources) ListGroupResources(_ context.Context, groupID primitive.ObjectID, _ string, _ models.Pagination) ([]models.Resource, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Resource
	for _, res := range f.resources {
		if res.GroupID == groupID && !res.Hidden {
			out = append(out, *res)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeResources) ListAll(context.Context, models.Pagination) ([]models.Resource, int64, error) {
	return nil, 0, nil
}

func (f *fakeResources) IncrementViews(_ context.Context, id primitive.ObjectID) (*models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.resources[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	res.Views++
	cp := *res
	return &cp, nil
}

func (f *fakeResources) UpdateResource(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.resources[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			res.Title = v.(string)
		case "link":
			res.Link = v.(string)
		case "hidden":
			res.Hidden = v.(bool)
		}
	}
	cp := *res
	return &cp, nil
}

func (f *fakeResources) DeleteResource(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.resources[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.resources, id)
	return nil
}

func (f *fakeResources) Analytics(context.Context, time.Time) (*models.ResourceAnalytics, error) {
	return &models.ResourceAnalytics{}, nil
}

type fakeMessages struct {
	mu       sync.Mutex
	messages map[primitive.ObjectID]*models.ChatMessage
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{messages: make(map[primitive.ObjectID]*models.ChatMessage)}
}

func (f *fakeMessages) SendMessage(_ context.Context, msg *models.ChatMessage) (*models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	cp := *msg
	f.messages[msg.ID] = &cp
	return msg, nil
}

func (f *fakeMessages) GetMessageByID(_ context.Context, id primitive.ObjectID) (*models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *msg
	return &cp, nil
}

func (f *fakeMessages) ListGroupMessages(_ context.Context, groupID primitive.ObjectID, _ *time.Time, _ models.Pagination) ([]models.ChatMessage, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChatMessage
	for _, msg := range f.messages {
		if msg.GroupID == groupID {
			out = append(out, *msg)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeMessages) ListAllMessages(context.Context, *primitive.ObjectID, models.Pagination) ([]models.ChatMessage, int64, error) {
	return nil, 0, nil
}

func (f *fakeMessages) CountSince(_ context.Context, groupID, userID primitive.ObjectID, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, msg := range f.messages {
		if msg.GroupID == groupID && msg.SenderID != userID && msg.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) UpdateMessage(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "message":
			msg.Message = v.(string)
		case "edited":
			msg.Edited = v.(bool)
		case "edited_at":
			t := v.(time.Time)
			msg.EditedAt = &t
		case "hidden":
			msg.Hidden = v.(bool)
		}
	}
	cp := *msg
	return &cp, nil
}

func (f *fakeMessages) DeleteMessage(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.messages, id)
	return nil
}

// backdate moves a stored message's creation time into the past.
func (f *fakeMessages) backdate(id primitive.ObjectID, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[id].CreatedAt = f.messages[id].CreatedAt.Add(-d)
}

type fakeRequests struct {
	mu       sync.Mutex
	requests map[primitive.ObjectID]*models.ResourceRequest
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{requests: make(map[primitive.ObjectID]*models.ResourceRequest)}
}

func cloneRequest(r *models.ResourceRequest) *models.ResourceRequest {
	cp := *r
	cp.Responses = append([]models.RequestResponse(nil), r.Responses...)
	return &cp
}

func (f *fakeRequests) Create(_ context.Context, req *models.ResourceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req.ID = primitive.NewObjectID()
	f.requests[req.ID] = cloneRequest(req)
	return nil
}

func (f *fakeRequests) GetByID(_ context.Context, id primitive.ObjectID) (*models.ResourceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (f *fakeRequests) List(_ context.Context, flt models.RequestFilter, _ models.Pagination) ([]models.ResourceRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ResourceRequest
	for _, req := range f.requests {
		if flt.RequesterID != nil && req.RequesterID != *flt.RequesterID {
			continue
		}
		if flt.Status != "" && req.Status != flt.Status {
			continue
		}
		out = append(out, *cloneRequest(req))
	}
	return out, int64(len(out)), nil
}

func (f *fakeRequests) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.ResourceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			req.Status = v.(string)
		case "title":
			req.Title = v.(string)
		case "description":
			req.Description = v.(string)
		}
	}
	return cloneRequest(req), nil
}

func (f *fakeRequests) AddResponse(_ context.Context, id primitive.ObjectID, resp models.RequestResponse) (*models.ResourceRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	req.Responses = append(req.Responses, resp)
	return cloneRequest(req), nil
}

func (f *fakeRequests) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.requests, id)
	return nil
}

func (f *fakeRequests) CountByStatus(context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int64{}
	for _, req := range f.requests {
		out[req.Status]++
	}
	return out, nil
}

type fakeReports struct {
	mu      sync.Mutex
	reports map[primitive.ObjectID]*models.Report
}

func newFakeReports() *fakeReports {
	return &fakeReports{reports: make(map[primitive.ObjectID]*models.Report)}
}

func (f *fakeReports) Create(_ context.Context, rep *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rep.ID = primitive.NewObjectID()
	cp := *rep
	f.reports[rep.ID] = &cp
	return nil
}

func (f *fakeReports) GetByID(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rep, ok := f.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rep
	return &cp, nil
}

func (f *fakeReports) List(_ context.Context, flt models.ReportFilter, _ models.Pagination) ([]models.Report, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Report
	for _, rep := range f.reports {
		if flt.ReportedBy != nil && rep.ReportedBy != *flt.ReportedBy {
			continue
		}
		out = append(out, *rep)
	}
	return out, int64(len(out)), nil
}

func (f *fakeReports) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rep, ok := f.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			rep.Status = v.(string)
		case "action_taken":
			rep.ActionTaken = v.(string)
		case "action_reason":
			rep.ActionReason = v.(string)
		case "admin_notes":
			rep.AdminNotes = v.(string)
		case "reviewed_by":
			id := v.(primitive.ObjectID)
			rep.ReviewedBy = &id
		}
	}
	cp := *rep
	return &cp, nil
}

func (f *fakeReports) UpdateStatusMany(_ context.Context, ids []primitive.ObjectID, status string, _ primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if rep, ok := f.reports[id]; ok && rep.Status != status {
			rep.Status = status
			n++
		}
	}
	return n, nil
}

func (f *fakeReports) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reports[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.reports, id)
	return nil
}

func (f *fakeReports) CountBy(_ context.Context, field string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int64{}
	for _, rep := range f.reports {
		switch field {
		case "status":
			out[rep.Status]++
		case "type":
			out[rep.Type]++
		case "reason":
			out[rep.Reason]++
		}
	}
	return out, nil
}

type fakeResourceGroups struct {
	mu     sync.Mutex
	groups map[primitive.ObjectID]*models.ResourceGroup
}

func newFakeResourceGroups() *fakeResourceGroups {
	return &fakeResourceGroups{groups: make(map[primitive.ObjectID]*models.ResourceGroup)}
}

func cloneResourceGroup(rg *models.ResourceGroup) *models.ResourceGroup {
	cp := *rg
	cp.Resources = append([]primitive.ObjectID(nil), rg.Resources...)
	cp.LinkedGroups = append([]primitive.ObjectID(nil), rg.LinkedGroups...)
	return &cp
}

func (f *fakeResourceGroups) Create(_ context.Context, rg *models.ResourceGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.groups {
		if existing.Name == rg.Name {
			return repository.ErrDuplicate
		}
	}
	rg.ID = primitive.NewObjectID()
	f.groups[rg.ID] = cloneResourceGroup(rg)
	return nil
}

func (f *fakeResourceGroups) GetByID(_ context.Context, id primitive.ObjectID) (*models.ResourceGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rg, ok := f.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneResourceGroup(rg), nil
}

func (f *fakeResourceGroups) List(context.Context) ([]models.ResourceGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ResourceGroup
	for _, rg := range f.groups {
		out = append(out, *cloneResourceGroup(rg))
	}
	return out, nil
}

func (f *fakeResourceGroups) Save(_ context.Context, rg *models.ResourceGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[rg.ID]; !ok {
		return repository.ErrNotFound
	}
	f.groups[rg.ID] = cloneResourceGroup(rg)
	return nil
}

func (f *fakeResourceGroups) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.groups, id)
	return nil
}

type fakeFeedback struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Feedback
}

func newFakeFeedback() *fakeFeedback {
	return &fakeFeedback{items: make(map[primitive.ObjectID]*models.Feedback)}
}

func (f *fakeFeedback) Create(_ context.Context, fb *models.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fb.ID = primitive.NewObjectID()
	cp := *fb
	f.items[fb.ID] = &cp
	return nil
}

func (f *fakeFeedback) GetByID(_ context.Context, id primitive.ObjectID) (*models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fb, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *fb
	return &cp, nil
}

func (f *fakeFeedback) List(context.Context, models.FeedbackFilter, models.Pagination) ([]models.Feedback, int64, error) {
	return nil, 0, nil
}

func (f *fakeFeedback) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fb, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "status":
			fb.Status = v.(string)
		case "admin_response":
			fb.AdminResponse = v.(string)
		}
	}
	cp := *fb
	return &cp, nil
}

func (f *fakeFeedback) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}
