package inbound

type StartRequest struct {
	Email string `json:"email"`
}

type StartResponse struct {
	SessionToken     string `json:"session_token"`
	SessionSignature string `json:"session_signature"`
	Payload          string `json:"payload"`
	PayloadSignature string `json:"payload_signature"`
	MaskedPhone      string `json:"masked_phone"`
	SubjectRef       string `json:"subject_ref"`
}

type SendCodeRequest struct {
	SessionToken     string `json:"session_token"`
	SessionSignature string `json:"session_signature"`
	Payload          string `json:"payload"`
	PayloadSignature string `json:"payload_signature"`
	Phone            string `json:"phone"`
}

type SendCodeResponse struct {
	SessionToken     string `json:"session_token"`
	SessionSignature string `json:"session_signature"`
	Payload          string `json:"payload"`
	PayloadSignature string `json:"payload_signature"`
	MaskedPhone      string `json:"masked_phone"`
}

func (SendCodeResponse) Message() string {
	return "We have sent a verification code to your phone."
}

type CompleteRequest struct {
	SessionToken     string `json:"session_token"`
	SessionSignature string `json:"session_signature"`
	Payload          string `json:"payload"`
	PayloadSignature string `json:"payload_signature"`
	Code             string `json:"code"`
	NewPassword      string `json:"new_password"`
	ConfirmPassword  string `json:"confirm_password"`
}

type CompleteResponse struct{}

func (CompleteResponse) Message() string {
	return "Your password has been reset. You can now sign in with the new password."
}
