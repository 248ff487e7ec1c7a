package repository

import (
	"context"
	"time"

	"museumbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UpdateRequestRepository struct {
	db *gorm.DB
}

func NewUpdateRequestRepository(db *gorm.DB) *UpdateRequestRepository {
	return &UpdateRequestRepository{db: db}
}

type updateRequestModel struct {
	ID                   int64      `gorm:"column:id;primaryKey"`
	BookingID            int64      `gorm:"column:booking_id;index;not null"`
	UserID               int64      `gorm:"column:user_id;index;not null"`
	RequestedSlotAt      *time.Time `gorm:"column:requested_date_time"`
	RequestedPeople      *int       `gorm:"column:requested_people"`
	RequestedInfoMessage *string    `gorm:"column:requested_info_message"`
	Note                 *string    `gorm:"column:note"`
	Status               string     `gorm:"column:status;size:16;index;not null;default:pending"`
	AdminNote            *string    `gorm:"column:admin_note"`
	CreatedAt            time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;not null"`
	ProcessedAt          *time.Time `gorm:"column:processed_at"`
}

func (updateRequestModel) TableName() string { return "booking_update_requests" }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func toUpdateRequestModel(r *domain.BookingUpdateRequest) updateRequestModel {
	return updateRequestModel{
		ID:                   r.ID,
		BookingID:            r.BookingID,
		UserID:               r.UserID,
		RequestedSlotAt:      utcPtr(r.RequestedSlotAt),
		RequestedPeople:      r.RequestedPeople,
		RequestedInfoMessage: r.RequestedNote,
		Note:                 r.Note,
		Status:               string(r.Status),
		AdminNote:            r.AdminNote,
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
		ProcessedAt:          utcPtr(r.ProcessedAt),
	}
}

func toDomainUpdateRequest(m updateRequestModel) *domain.BookingUpdateRequest {
	return &domain.BookingUpdateRequest{
		ID:              m.ID,
		BookingID:       m.BookingID,
		UserID:          m.UserID,
		RequestedSlotAt: m.RequestedSlotAt,
		RequestedPeople: m.RequestedPeople,
		RequestedNote:   m.RequestedInfoMessage,
		Note:            m.Note,
		Status:          domain.UpdateRequestStatus(m.Status),
		AdminNote:       m.AdminNote,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		ProcessedAt:     m.ProcessedAt,
	}
}

func (r *UpdateRequestRepository) Create(ctx context.Context, req *domain.BookingUpdateRequest) error {
	m := toUpdateRequestModel(req)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return classify(err)
	}
	*req = *toDomainUpdateRequest(m)
	return nil
}

func (r *UpdateRequestRepository) GetForUpdate(ctx context.Context, id int64) (*domain.BookingUpdateRequest, error) {
	var m updateRequestModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		return nil, classify(err)
	}
	return toDomainUpdateRequest(m), nil
}

// Resolve records a decision. Only pending rows are touched; a request that was already
// decided yields domain.ErrConflict.
func (r *UpdateRequestRepository) Resolve(ctx context.Context, req *domain.BookingUpdateRequest) error {
	res := r.db.WithContext(ctx).Model(&updateRequestModel{}).
		Where("id = ? AND status = ?", req.ID, string(domain.UpdateRequestPending)).
		Updates(map[string]any{
			"status":       string(req.Status),
			"admin_note":   req.AdminNote,
			"processed_at": utcPtr(req.ProcessedAt),
			"updated_at":   req.UpdatedAt.UTC(),
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

// RejectPendingForBooking closes every pending request of bookingID with adminNote.
func (r *UpdateRequestRepository) RejectPendingForBooking(ctx context.Context, bookingID int64, adminNote string, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&updateRequestModel{}).
		Where("booking_id = ? AND status = ?", bookingID, string(domain.UpdateRequestPending)).
		Updates(map[string]any{
			"status":       string(domain.UpdateRequestRejected),
			"admin_note":   adminNote,
			"processed_at": now.UTC(),
			"updated_at":   now.UTC(),
		})
	if res.Error != nil {
		return 0, classify(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *UpdateRequestRepository) CountPendingForBooking(ctx context.Context, bookingID int64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&updateRequestModel{}).
		Where("booking_id = ? AND status = ?", bookingID, string(domain.UpdateRequestPending)).
		Count(&cnt).Error
	if err != nil {
		return 0, classify(err)
	}
	return cnt, nil
}

// ListByUser returns the user's requests, newest first.
func (r *UpdateRequestRepository) ListByUser(ctx context.Context, userID int64) ([]domain.BookingUpdateRequest, error) {
	return r.find(r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC"))
}

// ListByStatus returns requests with the given status, oldest first so admins work the queue in order.
func (r *UpdateRequestRepository) ListByStatus(ctx context.Context, status domain.UpdateRequestStatus) ([]domain.BookingUpdateRequest, error) {
	return r.find(r.db.WithContext(ctx).Where("status = ?", string(status)).Order("created_at ASC, id ASC"))
}

func (r *UpdateRequestRepository) find(q *gorm.DB) ([]domain.BookingUpdateRequest, error) {
	var rows []updateRequestModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	out := make([]domain.BookingUpdateRequest, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainUpdateRequest(m))
	}
	return out, nil
}
