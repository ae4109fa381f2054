package domain

// TOTPEnrollment is the pending second-factor material returned to the user.
// Token is a short-lived signed claim carrying the candidate secret; nothing
// is persisted until activation succeeds with a matching code.
type TOTPEnrollment struct {
	Secret string // base32 shared secret, shown once for manual entry
	URL    string // otpauth:// provisioning URL for QR rendering
	Token  string
}
