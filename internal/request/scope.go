package request

import (
	"context"

	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
)

// Hierarchy is the part of the org chart the access rules read.
type Hierarchy interface {
	ManagerOf(ctx context.Context, userID int64) (*int64, error)
	DirectReports(ctx context.Context, managerID int64) ([]int64, error)
}

// AccessScope decides which requests an actor may see or decide.
type AccessScope struct {
	hierarchy Hierarchy
}

func NewAccessScope(hierarchy Hierarchy) *AccessScope {
	return &AccessScope{hierarchy: hierarchy}
}

// CanDecide holds for any admin, and for the current manager of the owner.
// Nobody decides their own request.
func (s *AccessScope) CanDecide(ctx context.Context, actor *coreuser.Actor, req *Request) (bool, error) {
	if req.UserID == actor.ID {
		return false, nil
	}
	switch {
	case actor.IsAdmin():
		return true, nil
	case actor.IsManager():
		managerID, err := s.hierarchy.ManagerOf(ctx, req.UserID)
		if err != nil {
			return false, err
		}
		return managerID != nil && *managerID == actor.ID, nil
	}
	return false, nil
}

// CanView holds for the owner and for anyone who may decide the request.
func (s *AccessScope) CanView(ctx context.Context, actor *coreuser.Actor, req *Request) (bool, error) {
	if req.UserID == actor.ID {
		return true, nil
	}
	return s.CanDecide(ctx, actor, req)
}

// VisibleOwners lists whose requests appear in the actor's listings.
// Employees see only their own. Managers and admins see their direct
// reports, so an admin sees managers' requests but not employees'.
func (s *AccessScope) VisibleOwners(ctx context.Context, actor *coreuser.Actor) ([]int64, error) {
	if actor.IsEmployee() {
		return []int64{actor.ID}, nil
	}
	return s.hierarchy.DirectReports(ctx, actor.ID)
}
