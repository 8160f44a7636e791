package model

import "time"

// UsageLog records one authenticated hit against the API: either an
// administrator action or a successful key claim. Exactly one of
// AdminUsername and APIUsername is set per row; the schema enforces it
// with a check constraint. Rows are written best-effort and a failed
// write never fails the request it describes.
type UsageLog struct {
	ID            int64     `json:"id" db:"id"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
	APIUsername   *string   `json:"apiUserId,omitempty" db:"api_user_id"`
	AdminUsername *string   `json:"adminUserId,omitempty" db:"admin_user_id"`
	Endpoint      string    `json:"endpoint" db:"endpoint"`
	Status        int       `json:"status" db:"status"`
}
