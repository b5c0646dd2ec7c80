package utils

import (
	"agriconnect/config"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/go-resty/resty/v2"
)

// GenerateOTP generates a 5-digit OTP
func GenerateOTP() string {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return fmt.Sprintf("%05d", rng.Intn(90000)+10000)
}

// OTPValidity is how long a login code can be redeemed.
const OTPValidity = 5 * time.Minute

// SendOTPToMobile delivers a login code over the SMS gateway. Failures are
// reported to the caller; delivery is best-effort alongside email.
func SendOTPToMobile(mobile, otp string) error {
	cfg := config.AppConfig
	if cfg.LocalTextApi == "" {
		log.Println("SMS gateway not configured, skipping SMS OTP for", mobile)
		return nil
	}

	client := resty.New().SetTimeout(10 * time.Second)

	resp, err := client.R().
		SetQueryParams(map[string]string{
			"authorization":    cfg.LocalTextApi,
			"route":            "otp",
			"variables_values": otp,
			"flash":            "0",
			"numbers":          mobile,
		}).
		Get(cfg.LocalTextApiUrl)
	if err != nil {
		log.Printf("Error while sending OTP: %v", err)
		return err
	}

	if resp.StatusCode() != 200 {
		log.Printf("Failed to send OTP, response code: %d", resp.StatusCode())
		return fmt.Errorf("failed to send OTP, code: %d", resp.StatusCode())
	}

	log.Println("OTP sent successfully to", mobile)
	return nil
}
