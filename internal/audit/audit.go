package audit

import (
	"context"

	"github.com/weiawesome/user-avatar-service/internal/domain"
	"github.com/weiawesome/user-avatar-service/pkg/log"
)

// Audit actions for the user avatar service.
const (
	ActionSignUp        = "user.signup"
	ActionLogin         = "user.login"
	ActionLoginFailed   = "user.login_failed"
	ActionGetProfile    = "user.get_profile"
	ActionAvatarFill    = "avatar.fill"
	ActionAvatarServe   = "avatar.serve"
	ActionAvatarDelete  = "avatar.delete"
	ActionAvatarCorrupt = "avatar.corrupt"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}

// LogAvatar emits an audit entry for an avatar record, carrying its content
// hash and blob key. detail is omitted when empty.
func LogAvatar(ctx context.Context, action string, record *domain.AvatarRecord, detail string, msg string) {
	l := log.Ctx(ctx)
	ev := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, record.UserID).
		Str(log.FieldContentHash, record.ContentHash).
		Str(log.FieldBlobKey, record.BlobPath)
	if detail != "" {
		ev = ev.Str(FieldDetail, detail)
	}
	ev.Msg(msg)
}
