package entity

// SubjectStatus mirrors the account lifecycle states relevant to recovery.
type SubjectStatus int16

const (
	// SubjectStatusUnknown is mean status is not known / not set.
	SubjectStatusUnknown SubjectStatus = 0

	// SubjectStatusUnverified mean subject exists but has not completed verification.
	SubjectStatusUnverified SubjectStatus = 1

	// SubjectStatusActive mean subject is verified and allowed to use the app.
	SubjectStatusActive SubjectStatus = 2

	// SubjectStatusBanned mean subject is blocked from using the app (policy/abuse/etc).
	SubjectStatusBanned SubjectStatus = 3

	// SubjectStatusInactive mean subject is not currently active (e.g., deactivated, closed).
	SubjectStatusInactive SubjectStatus = 4
)

func (ss SubjectStatus) String() string {
	switch ss {
	case SubjectStatusActive:
		return "Active"
	case SubjectStatusBanned:
		return "Banned"
	case SubjectStatusInactive:
		return "Inactive"
	case SubjectStatusUnverified:
		return "Unverified"
	default:
		return "Unknown"
	}
}
