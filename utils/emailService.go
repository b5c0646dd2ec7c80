package utils

import (
	"agriconnect/config"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

func sendEmail(toName, toEmail, subject, html string) error {
	cfg := config.AppConfig
	if cfg.SendGridKey == "" {
		log.Printf("Email disabled, skipping %q to %s", subject, toEmail)
		return nil
	}

	from := mail.NewEmail("Agriconnect", cfg.EmailSender)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", html)

	client := sendgrid.NewSendClient(cfg.SendGridKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("Error sending email to %s: %v", toEmail, err)
		return err
	}
	if resp.StatusCode >= 400 {
		log.Printf("Email to %s rejected: %d %s", toEmail, resp.StatusCode, resp.Body)
		return fmt.Errorf("email rejected, code: %d", resp.StatusCode)
	}

	log.Println("Email sent successfully to", toEmail)
	return nil
}

// SendOTPEmail delivers a login verification code.
func SendOTPEmail(otp, name, email string) error {
	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 500px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
					<h2 style="color: #333333; text-align: center;">Agriconnect Verification</h2>
					<p style="font-size: 16px; color: #555555; text-align: center;">Your One Time Password (OTP) is:</p>
					<h1 style="text-align: center; color: #4CAF50; font-size: 40px; margin: 20px 0;">%s</h1>
					<p style="font-size: 14px; color: #999999; text-align: center;">The code expires in 5 minutes. Do not share it with anyone.</p>
				</div>
			</body>
		</html>
	`, otp)

	return sendEmail(name, email, "Your Agriconnect verification code", body)
}

// SendPasswordResetEmail delivers a reset link built from the reset id.
func SendPasswordResetEmail(resetID, name, email string) error {
	link := fmt.Sprintf("%s/reset-password/%s", config.AppConfig.FrontendURL, resetID)

	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 500px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
					<h2 style="color: #333333; text-align: center;">Password Reset</h2>
					<p style="font-size: 16px; color: #555555;">Hi %s,</p>
					<p style="font-size: 16px; color: #555555;">We received a request to reset your password. Click the link below to choose a new one:</p>
					<p style="text-align: center; margin: 20px 0;"><a href="%s">%s</a></p>
					<p style="font-size: 14px; color: #999999;">If you did not request this, you can ignore this email.</p>
				</div>
			</body>
		</html>
	`, name, link, link)

	return sendEmail(name, email, "Reset your Agriconnect password", body)
}

// SendProjectCreatedEmail notifies the platform admin that a farmer submitted
// a new project.
func SendProjectCreatedEmail(farmerName, farmerEmail, projectTitle, projectID string) error {
	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; padding: 20px;">
				<h2>New project created</h2>
				<p>Farmer: %s (%s)</p>
				<p>Title: %s</p>
				<p>Project ID: %s</p>
			</body>
		</html>
	`, farmerName, farmerEmail, projectTitle, projectID)

	return sendEmail("Admin", config.AppConfig.AdminEmail, "New project created by farmer", body)
}
