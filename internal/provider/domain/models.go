// Package domain contains persistence models for service providers.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ServiceProvider represents a selling tenant. It is scoped
// independently of organizations; one organization can hold credit with
// many providers.
type ServiceProvider struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex:ux_service_providers_slug" json:"slug"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ServiceProvider) TableName() string { return "service_providers" }
