package payload

type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"  validate:"omitempty,min=2,max=50"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,strongpassword"`
}

type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

type EnableTwoFactorRequest struct {
	Password string `json:"password" validate:"required"`
}

type VerifyTwoFactorRequest struct {
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}

// TwoFactorSetupResponse carries the one-time plaintext enrollment artifacts.
type TwoFactorSetupResponse struct {
	Message     string   `json:"message"`
	Secret      string   `json:"secret"`
	SetupURI    string   `json:"setup_uri"`
	QRCode      string   `json:"qr_code"`
	BackupCodes []string `json:"backup_codes"`
}
