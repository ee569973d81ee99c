package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRequestSubmitted    = "request.submitted"
	EventTypeRequestDecided      = "request.decided"
	EventTypeInfoRequestResolved = "info_request.resolved"
)

type RequestSubmittedEvent struct {
	BaseEvent
	RequestID   int64  `json:"request_id"`
	UserID      int64  `json:"user_id"`
	ReportingID *int64 `json:"reporting_id,omitempty"`
	RequestType string `json:"request_type"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

func NewRequestSubmittedEvent(requestID, userID int64, reportingID *int64, requestType, startDate, endDate string) *RequestSubmittedEvent {
	return &RequestSubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRequestSubmitted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":   requestID,
				"user_id":      userID,
				"reporting_id": reportingID,
				"request_type": requestType,
				"start_date":   startDate,
				"end_date":     endDate,
			},
		},
		RequestID:   requestID,
		UserID:      userID,
		ReportingID: reportingID,
		RequestType: requestType,
		StartDate:   startDate,
		EndDate:     endDate,
	}
}

type RequestDecidedEvent struct {
	BaseEvent
	RequestID     int64  `json:"request_id"`
	UserID        int64  `json:"user_id"`
	DecidedBy     int64  `json:"decided_by"`
	Status        string `json:"status"`
	LeaveCategory string `json:"leave_category,omitempty"`
	DaysDebited   int    `json:"days_debited"`
}

func NewRequestDecidedEvent(requestID, userID, decidedBy int64, status string, leaveCategory string, daysDebited int) *RequestDecidedEvent {
	return &RequestDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRequestDecided,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"request_id":     requestID,
				"user_id":        userID,
				"decided_by":     decidedBy,
				"status":         status,
				"leave_category": leaveCategory,
				"days_debited":   daysDebited,
			},
		},
		RequestID:     requestID,
		UserID:        userID,
		DecidedBy:     decidedBy,
		Status:        status,
		LeaveCategory: leaveCategory,
		DaysDebited:   daysDebited,
	}
}

type InfoRequestResolvedEvent struct {
	BaseEvent
	InfoRequestID int64 `json:"info_request_id"`
	UserID        int64 `json:"user_id"`
	ResolvedBy    int64 `json:"resolved_by"`
}

func NewInfoRequestResolvedEvent(infoRequestID, userID, resolvedBy int64) *InfoRequestResolvedEvent {
	return &InfoRequestResolvedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeInfoRequestResolved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"info_request_id": infoRequestID,
				"user_id":         userID,
				"resolved_by":     resolvedBy,
			},
		},
		InfoRequestID: infoRequestID,
		UserID:        userID,
		ResolvedBy:    resolvedBy,
	}
}
