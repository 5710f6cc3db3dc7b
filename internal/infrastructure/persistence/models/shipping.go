package models

import (
	"time"

	"github.com/gescom/backend/internal/domain/shipping"
	"github.com/google/uuid"
)

// DeliveryModel is the persistence model for the Delivery aggregate
type DeliveryModel struct {
	AggregateModel
	DeliveryNumber string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	InvoiceID      *uuid.UUID                `gorm:"type:uuid;index"`
	CustomerID     uuid.UUID                 `gorm:"type:uuid;not null;index"`
	CustomerName   string                    `gorm:"type:varchar(200);not null"`
	Address        string                    `gorm:"type:text;not null"`
	Wilaya         string                    `gorm:"type:varchar(100);index"`
	Phone          string                    `gorm:"type:varchar(50)"`
	DriverName     string                    `gorm:"type:varchar(100)"`
	Status         shipping.DeliveryStatus   `gorm:"type:varchar(20);not null;default:'pending';index"`
	History        []DeliveryStatusChangeModel `gorm:"foreignKey:DeliveryID;constraint:OnDelete:CASCADE"`
	ScheduledDate  *time.Time                `gorm:"index"`
	DeliveredAt    *time.Time
	Notes          string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (DeliveryModel) TableName() string {
	return "deliveries"
}

// DeliveryStatusChangeModel is the append-only status history of a delivery
type DeliveryStatusChangeModel struct {
	ID         uuid.UUID               `gorm:"type:uuid;primary_key"`
	DeliveryID uuid.UUID               `gorm:"type:uuid;not null;index"`
	FromStatus shipping.DeliveryStatus `gorm:"type:varchar(20)"`
	ToStatus   shipping.DeliveryStatus `gorm:"type:varchar(20);not null"`
	Note       string                  `gorm:"type:text"`
	ChangedAt  time.Time               `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (DeliveryStatusChangeModel) TableName() string {
	return "delivery_status_changes"
}

// ToDomain converts the persistence model to a domain Delivery aggregate
func (m *DeliveryModel) ToDomain() *shipping.Delivery {
	history := make([]shipping.StatusChange, len(m.History))
	for i, h := range m.History {
		history[i] = shipping.StatusChange{
			ID:         h.ID,
			DeliveryID: h.DeliveryID,
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			Note:       h.Note,
			ChangedAt:  h.ChangedAt,
		}
	}
	return &shipping.Delivery{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DeliveryNumber:    m.DeliveryNumber,
		InvoiceID:         m.InvoiceID,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		Address:           m.Address,
		Wilaya:            m.Wilaya,
		Phone:             m.Phone,
		DriverName:        m.DriverName,
		Status:            m.Status,
		History:           history,
		ScheduledDate:     m.ScheduledDate,
		DeliveredAt:       m.DeliveredAt,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Delivery aggregate
func (m *DeliveryModel) FromDomain(d *shipping.Delivery) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.DeliveryNumber = d.DeliveryNumber
	m.InvoiceID = d.InvoiceID
	m.CustomerID = d.CustomerID
	m.CustomerName = d.CustomerName
	m.Address = d.Address
	m.Wilaya = d.Wilaya
	m.Phone = d.Phone
	m.DriverName = d.DriverName
	m.Status = d.Status
	m.ScheduledDate = d.ScheduledDate
	m.DeliveredAt = d.DeliveredAt
	m.Notes = d.Notes

	m.History = make([]DeliveryStatusChangeModel, len(d.History))
	for i, h := range d.History {
		m.History[i] = DeliveryStatusChangeModel{
			ID:         h.ID,
			DeliveryID: h.DeliveryID,
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			Note:       h.Note,
			ChangedAt:  h.ChangedAt,
		}
	}
}

// DeliveryModelFromDomain creates a persistence model from a domain Delivery
func DeliveryModelFromDomain(d *shipping.Delivery) *DeliveryModel {
	m := &DeliveryModel{}
	m.FromDomain(d)
	return m
}
