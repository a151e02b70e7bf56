package event

const RecoveryCompletedDestination string = "recovery_completed"
const RecoveryCompletedConsumerNotification string = "recovery_completed_notification"

type RecoveryCompletedMessage struct {
	EventID     int64  `json:"event_id"`
	SubjectID   int64  `json:"subject_id"`
	Email       string `json:"email"`
	CompletedAt int64  `json:"completed_at"`
}
