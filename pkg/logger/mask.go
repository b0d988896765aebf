package logger

import "go.uber.org/zap"

// MaskSecret creates a zap field that shows only the last four characters
// of an API key or token.
func MaskSecret(key, secret string) zap.Field {
	return zap.String(key, maskSecret(secret))
}

// MaskPhone creates a zap field that masks all but the last two digits
// of a phone number.
func MaskPhone(key, phone string) zap.Field {
	if phone == "" {
		return zap.String(key, "")
	}
	if len(phone) <= 2 {
		return zap.String(key, "***")
	}
	return zap.String(key, "***"+phone[len(phone)-2:])
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
