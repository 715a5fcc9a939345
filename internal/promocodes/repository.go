package promocodes

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	FindByCode(ctx context.Context, code string) (*Promocode, error)

	// AppliesToTicket checks the promocode's ticket scope. A promocode
	// without scope rows applies to all tickets.
	AppliesToTicket(ctx context.Context, promocodeID, ticketID uuid.UUID) (bool, error)

	HasUsage(ctx context.Context, userID, promocodeID, ticketID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*Promocode, error) {
	var promocode Promocode
	err := r.db.WithContext(ctx).Where("code = ?", strings.TrimSpace(code)).First(&promocode).Error
	if err != nil {
		return nil, err
	}
	return &promocode, nil
}

func (r *repository) AppliesToTicket(ctx context.Context, promocodeID, ticketID uuid.UUID) (bool, error) {
	var scoped int64
	err := r.db.WithContext(ctx).Model(&PromocodeTicket{}).
		Where("promocode_id = ?", promocodeID).
		Count(&scoped).Error
	if err != nil {
		return false, err
	}
	if scoped == 0 {
		return true, nil
	}

	var matched int64
	err = r.db.WithContext(ctx).Model(&PromocodeTicket{}).
		Where("promocode_id = ? AND ticket_id = ?", promocodeID, ticketID).
		Count(&matched).Error
	if err != nil {
		return false, err
	}
	return matched > 0, nil
}

func (r *repository) HasUsage(ctx context.Context, userID, promocodeID, ticketID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&PromocodeUsage{}).
		Where("user_id = ? AND promocode_id = ? AND ticket_id = ?", userID, promocodeID, ticketID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
