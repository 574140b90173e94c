package queue

import "time"

// Audit event kinds published by the handlers.
const (
	EventMemberSignup  = "member.signup"
	EventMemberDeleted = "member.deleted"
	EventPostCreated   = "post.created"
	EventPostDeleted   = "post.deleted"
)

// AuditEvent is the message written to the audit queue. Post fields stay
// zero for member events and vice versa.
type AuditEvent struct {
	Kind     string    `json:"kind"`
	MemberID uint64    `json:"member_id"`
	Email    string    `json:"email,omitempty"`
	PostID   uint64    `json:"post_id,omitempty"`
	Title    string    `json:"title,omitempty"`
	At       time.Time `json:"at"`
}
