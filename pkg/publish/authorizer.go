package publish

import "github.com/dukex/flowkit/pkg/models"

// Authorizer decides whether a user may write (publish or unpublish) a flow.
// The service conflates a forbidden result with a missing flow before it
// reaches the caller, so implementations never produce user-facing output.
type Authorizer interface {
	IsWriteForbidden(flow *models.Flow, workspace *models.Workspace, user *models.User) bool
}

// MembershipAuthorizer is the default policy: admins and members of a
// workspace in good standing may write its flows, guests and non-members may
// not.
type MembershipAuthorizer struct{}

func (MembershipAuthorizer) IsWriteForbidden(_ *models.Flow, workspace *models.Workspace, user *models.User) bool {
	if user == nil || workspace == nil {
		return true
	}

	if workspace.IsSuspended || workspace.IsPastDue {
		return true
	}

	switch workspace.MemberRole(user.ID) {
	case models.WorkspaceRoleAdmin, models.WorkspaceRoleMember:
		return false
	default:
		return true
	}
}
