package mailer

import (
	"fmt"
)

// VerificationEmail builds the email-verification message sent after
// registration and whenever a changed address needs re-verification.
func VerificationEmail(to, name, verificationURL string) Email {
	text := fmt.Sprintf(
		"Hello %s,\n\nThank you for registering! Please verify your email address by clicking the link below:\n\n%s\n\nThis link will expire in 24 hours.\n\nIf you didn't create an account, please ignore this email.",
		name, verificationURL,
	)
	html := fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>Thank you for registering! Please verify your email address by clicking the link below:</p>
		<p><a href="%s">%s</a></p>
		<p>This link will expire in 24 hours.</p>
		<p>If you didn't create an account, please ignore this email.</p>
	`, name, verificationURL, verificationURL)

	return Email{
		To:       []string{to},
		Subject:  "Verify Your Email Address",
		Body:     text,
		HTMLBody: html,
	}
}

// PasswordResetEmail builds the password-reset message.
func PasswordResetEmail(to, name, resetURL string) Email {
	text := fmt.Sprintf(
		"Hello %s,\n\nWe received a request to reset your password. Click the link below to reset it:\n\n%s\n\nThis link will expire in 30 minutes.\n\nIf you didn't request a password reset, please ignore this email and your password will remain unchanged.",
		name, resetURL,
	)
	html := fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>We received a request to reset your password. Click the link below to reset it:</p>
		<p><a href="%s">%s</a></p>
		<p>This link will expire in 30 minutes.</p>
		<p><strong>Important:</strong> If you didn't request a password reset, please ignore this email and your password will remain unchanged.</p>
	`, name, resetURL, resetURL)

	return Email{
		To:       []string{to},
		Subject:  "Password Reset Request",
		Body:     text,
		HTMLBody: html,
	}
}

// WelcomeEmail builds the message sent once an email address is verified.
func WelcomeEmail(to, name string) Email {
	text := fmt.Sprintf(
		"Hello %s,\n\nWelcome! Your email has been verified successfully.\n\nYou can now enjoy all features of our platform.\n\nThank you for joining us!",
		name,
	)
	html := fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>Welcome! Your email has been verified successfully.</p>
		<p>You can now enjoy all features of our platform.</p>
		<p>Thank you for joining us!</p>
	`, name)

	return Email{
		To:       []string{to},
		Subject:  "Welcome! Your email is verified",
		Body:     text,
		HTMLBody: html,
	}
}
