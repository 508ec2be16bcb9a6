package models

import "time"

// Audit action codes recorded by the console itself. Other subsystems may
// record free-form codes.
const (
	ActionLogin            = "LOGIN"
	ActionLogout           = "LOGOUT"
	ActionPageVisit        = "PAGE_VISIT"
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUserRole   = "UPDATE_USER_ROLE"
	ActionUpdatePassword   = "UPDATE_PASSWORD"
	ActionUpdateName       = "UPDATE_NAME"
	ActionDeleteUser       = "DELETE_USER"
	ActionSubmitIdea       = "SUBMIT_IDEA"
	ActionDeleteIdea       = "DELETE_IDEA"
	ActionCompleteList     = "COMPLETE_CHECKLIST"
	ActionDeleteCompletion = "DELETE_COMPLETION"
	ActionUpdateList       = "UPDATE_CHECKLIST"
	ActionUploadFile       = "UPLOAD_FILE"
	ActionDeleteFile       = "DELETE_FILE"
)

// ActivityLog is an append-only audit entry. UserEmail is denormalised so the
// entry outlives the account it refers to.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:36;index" json:"user_id"`
	UserEmail string    `gorm:"size:255;index;not null" json:"user_email"`
	Action    string    `gorm:"size:64;index;not null" json:"action"`
	Page      string    `gorm:"size:255" json:"page,omitempty"`
	Details   string    `gorm:"type:text" json:"details,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName pins the activity log table name.
func (ActivityLog) TableName() string {
	return "activity_logs"
}
