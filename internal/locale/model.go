package locale

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Locale is the persisted form of a supported locale.
type Locale struct {
	bun.BaseModel `bun:"table:locales,alias:l"`

	ID         uuid.UUID `bun:",pk,type:uuid"                          json:"id"`
	Code       string    `bun:"code,notnull,unique"                    json:"code"`
	Name       string    `bun:"name,notnull"                           json:"name"`
	NativeName string    `bun:"native_name"                            json:"native_name,omitempty"`
	RTL        bool      `bun:"rtl,notnull,default:false"              json:"rtl"`
	IsActive   bool      `bun:"is_active,notnull,default:true"         json:"is_active"`
	IsDefault  bool      `bun:"is_default,notnull,default:false"       json:"is_default"`
	CreatedAt  time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// NotFoundError is returned when a locale row does not exist.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return "locale not found: " + e.Code
}
