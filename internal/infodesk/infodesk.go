package infodesk

import (
	"time"

	infodeskDatamodel "github.com/frahmantamala/attendance-management/internal/core/datamodel/infodesk"
)

type InfoStatus string

const (
	InfoStatusOpen     InfoStatus = "OPEN"
	InfoStatusResolved InfoStatus = "RESOLVED"
)

// Feedback is append-only.
type Feedback struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

type InfoRequest struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	Username           string     `json:"username"`
	RequestType        string     `json:"request_type"`
	RequestDescription string     `json:"request_description"`
	Status             InfoStatus `json:"status"`
	ResolvedBy         *int64     `json:"resolved_by,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (r *InfoRequest) IsOpen() bool {
	return r.Status == InfoStatusOpen
}

func FeedbackToDataModel(f *Feedback) *infodeskDatamodel.Feedback {
	return &infodeskDatamodel.Feedback{
		ID:        f.ID,
		UserID:    f.UserID,
		Username:  f.Username,
		Feedback:  f.Feedback,
		CreatedAt: f.CreatedAt,
	}
}

func FeedbackFromDataModel(f *infodeskDatamodel.Feedback) *Feedback {
	return &Feedback{
		ID:        f.ID,
		UserID:    f.UserID,
		Username:  f.Username,
		Feedback:  f.Feedback,
		CreatedAt: f.CreatedAt,
	}
}

func InfoRequestToDataModel(r *InfoRequest) *infodeskDatamodel.InfoRequest {
	return &infodeskDatamodel.InfoRequest{
		ID:                 r.ID,
		UserID:             r.UserID,
		Username:           r.Username,
		RequestType:        r.RequestType,
		RequestDescription: r.RequestDescription,
		Status:             string(r.Status),
		ResolvedBy:         r.ResolvedBy,
		ResolvedAt:         r.ResolvedAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func InfoRequestFromDataModel(r *infodeskDatamodel.InfoRequest) *InfoRequest {
	return &InfoRequest{
		ID:                 r.ID,
		UserID:             r.UserID,
		Username:           r.Username,
		RequestType:        r.RequestType,
		RequestDescription: r.RequestDescription,
		Status:             InfoStatus(r.Status),
		ResolvedBy:         r.ResolvedBy,
		ResolvedAt:         r.ResolvedAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
