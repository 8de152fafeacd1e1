package models

// Plan is the billing tier of a workspace. Some capabilities (file-upload
// blocks) are gated on it at publish time.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// WorkspaceRole is a member's role inside a workspace.
type WorkspaceRole string

const (
	WorkspaceRoleAdmin  WorkspaceRole = "admin"
	WorkspaceRoleMember WorkspaceRole = "member"
	WorkspaceRoleGuest  WorkspaceRole = "guest"
)

// WorkspaceMember associates a user with a workspace.
type WorkspaceMember struct {
	UserID string        `json:"user_id" validate:"required"`
	Role   WorkspaceRole `json:"role"    validate:"required"`
}

// Workspace is the read-only workspace context the publish pipeline needs:
// plan tier, trust flags and membership. Billing and workspace management
// live elsewhere.
type Workspace struct {
	ID          string            `json:"id"   validate:"required"`
	Name        string            `json:"name"`
	Plan        Plan              `json:"plan" validate:"required"`
	IsVerified  bool              `json:"is_verified"` // Verified workspaces skip risk scoring
	IsSuspended bool              `json:"is_suspended"`
	IsPastDue   bool              `json:"is_past_due"`
	Members     []WorkspaceMember `json:"members"`
}

// MemberRole returns the role of the given user, or "" when the user is not
// a member.
func (w *Workspace) MemberRole(userID string) WorkspaceRole {
	for _, member := range w.Members {
		if member.UserID == userID {
			return member.Role
		}
	}

	return ""
}

// User is the acting principal of a publish request.
type User struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email,omitempty"`
}
