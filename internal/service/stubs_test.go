package service

import (
	"context"

	"barangay/internal/models"
	"barangay/internal/repository"
	"barangay/internal/syncbus"
)

type updateRequestRepoStub struct {
	createFn               func(context.Context, *models.UpdateRequest) error
	getByIDFn              func(context.Context, string) (*models.UpdateRequest, error)
	getPendingByResidentFn func(context.Context, uint) (*models.UpdateRequest, error)
	listByResidentFn       func(context.Context, uint, int, int) ([]models.UpdateRequest, error)
	listFn                 func(context.Context, models.UpdateRequestStatus, int, int) ([]models.UpdateRequest, error)
	resolveFn              func(context.Context, repository.ResolveParams) (*repository.ResolveResult, error)
}

func (s *updateRequestRepoStub) Create(ctx context.Context, request *models.UpdateRequest) error {
	return s.createFn(ctx, request)
}
func (s *updateRequestRepoStub) GetByID(ctx context.Context, id string) (*models.UpdateRequest, error) {
	return s.getByIDFn(ctx, id)
}
func (s *updateRequestRepoStub) GetPendingByResident(ctx context.Context, residentID uint) (*models.UpdateRequest, error) {
	return s.getPendingByResidentFn(ctx, residentID)
}
func (s *updateRequestRepoStub) ListByResident(ctx context.Context, residentID uint, limit, offset int) ([]models.UpdateRequest, error) {
	return s.listByResidentFn(ctx, residentID, limit, offset)
}
func (s *updateRequestRepoStub) List(ctx context.Context, status models.UpdateRequestStatus, limit, offset int) ([]models.UpdateRequest, error) {
	return s.listFn(ctx, status, limit, offset)
}
func (s *updateRequestRepoStub) Resolve(ctx context.Context, p repository.ResolveParams) (*repository.ResolveResult, error) {
	return s.resolveFn(ctx, p)
}

type residentRepoStub struct {
	getByIDFn func(context.Context, uint) (*models.Resident, error)
	createFn  func(context.Context, *models.Resident) error
	updateFn  func(context.Context, *models.Resident, int64) error
	listFn    func(context.Context, int, int) ([]models.Resident, error)
}

func (s *residentRepoStub) GetByID(ctx context.Context, id uint) (*models.Resident, error) {
	return s.getByIDFn(ctx, id)
}
func (s *residentRepoStub) Create(ctx context.Context, resident *models.Resident) error {
	return s.createFn(ctx, resident)
}
func (s *residentRepoStub) Update(ctx context.Context, resident *models.Resident, expectedVersion int64) error {
	return s.updateFn(ctx, resident, expectedVersion)
}
func (s *residentRepoStub) List(ctx context.Context, limit, offset int) ([]models.Resident, error) {
	return s.listFn(ctx, limit, offset)
}

type notificationRepoStub struct {
	createFn         func(context.Context, *models.Notification) error
	getByIDFn        func(context.Context, uint) (*models.Notification, error)
	getByRequestIDFn func(context.Context, string, models.NotificationType) (*models.Notification, error)
	listFn           func(context.Context, repository.NotificationFilter) (*models.NotificationList, error)
	markReadFn       func(context.Context, uint) error
	markAllReadFn    func(context.Context, repository.NotificationFilter) error
	patchStatusFn    func(context.Context, uint, models.NotificationStatus) (*models.Notification, error)
	deleteFn         func(context.Context, uint) error
}

func (s *notificationRepoStub) Create(ctx context.Context, notification *models.Notification) error {
	return s.createFn(ctx, notification)
}
func (s *notificationRepoStub) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	return s.getByIDFn(ctx, id)
}
func (s *notificationRepoStub) GetByRequestID(ctx context.Context, requestID string, notificationType models.NotificationType) (*models.Notification, error) {
	return s.getByRequestIDFn(ctx, requestID, notificationType)
}
func (s *notificationRepoStub) List(ctx context.Context, filter repository.NotificationFilter) (*models.NotificationList, error) {
	return s.listFn(ctx, filter)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, id uint) error {
	return s.markReadFn(ctx, id)
}
func (s *notificationRepoStub) MarkAllRead(ctx context.Context, filter repository.NotificationFilter) error {
	return s.markAllReadFn(ctx, filter)
}
func (s *notificationRepoStub) PatchStatus(ctx context.Context, id uint, status models.NotificationStatus) (*models.Notification, error) {
	return s.patchStatusFn(ctx, id, status)
}
func (s *notificationRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

type publisherStub struct {
	publishFn func(context.Context, syncbus.Event) error
	events    []syncbus.Event
}

func (s *publisherStub) Publish(ctx context.Context, ev syncbus.Event) error {
	s.events = append(s.events, ev)
	if s.publishFn != nil {
		return s.publishFn(ctx, ev)
	}
	return nil
}

func acceptingNotificationRepo() *notificationRepoStub {
	return &notificationRepoStub{
		createFn: func(context.Context, *models.Notification) error { return nil },
	}
}
