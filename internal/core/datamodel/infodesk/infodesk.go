package infodesk

import "time"

type Feedback struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Username  string    `gorm:"column:username;not null"`
	Feedback  string    `gorm:"column:feedback;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}

type InfoRequest struct {
	ID                 int64      `gorm:"primaryKey"`
	UserID             int64      `gorm:"column:user_id;not null;index"`
	Username           string     `gorm:"column:username;not null"`
	RequestType        string     `gorm:"column:request_type;not null"`
	RequestDescription string     `gorm:"column:request_description;not null"`
	Status             string     `gorm:"column:status;not null"`
	ResolvedBy         *int64     `gorm:"column:resolved_by"`
	ResolvedAt         *time.Time `gorm:"column:resolved_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (InfoRequest) TableName() string {
	return "info_requests"
}
