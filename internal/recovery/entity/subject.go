package entity

import "regexp"

// Actions name the workflow steps a session token can be bound to.
const (
	// ActionStep1 marks a token minted after phone verification.
	ActionStep1 = "password_reset_step1"
	// ActionStep2 marks a token minted after the SMS code was dispatched.
	ActionStep2 = "password_reset_step2"
)

// Regional mobile-number convention: 8 digits starting with 6 or 7.
var rePhone = regexp.MustCompile(`^[67]\d{7}$`)

// Subject is the account going through recovery.
type Subject struct {
	ID     int64
	Email  string
	Phone  string
	Status SubjectStatus
}

// CanRecover reports whether this account may start recovery: it must
// be active and carry a phone number in the deliverable format.
func (s Subject) CanRecover() bool {
	return s.Status == SubjectStatusActive && rePhone.MatchString(s.Phone)
}

// MaskedPhone renders the on-file phone for user confirmation without
// disclosing it: first two digits, four stars, last two digits.
func (s Subject) MaskedPhone() string {
	return MaskPhone(s.Phone)
}

// MaskPhone masks any phone string the same way MaskedPhone does.
// Strings shorter than four characters are fully masked.
func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return "****"
	}

	return phone[:2] + "****" + phone[len(phone)-2:]
}
