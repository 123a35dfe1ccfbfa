package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength        = 3
	MaxUsernameLength        = 30
	MinDisplayNameLength     = 2
	MaxDisplayNameLength     = 100
	MinPasswordLength        = 8
	MaxPasswordLength        = 128
	MaxReportDescriptionLength = 2000
	MaxResolutionNoteLength  = 2000
	MaxBanReasonLength       = 500
	MaxEvidenceURLs          = 10
	MaxEvidenceURLLength     = 500
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("email обязателен")
	}
	at := strings.Index(email, "@")
	dot := strings.LastIndex(email, ".")
	if at < 1 || dot < at+2 || dot == len(email)-1 {
		return fmt.Errorf("невалидный формат email")
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	if err := ValidateLength("username", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("username может содержать только буквы, цифры и подчёркивания")
	}
	return nil
}

// ValidatePassword проверяет минимальные требования к паролю.
func ValidatePassword(password string) error {
	return ValidateLength("пароль", password, MinPasswordLength, MaxPasswordLength)
}

// NormalizeOptionalText обрезает пробелы и превращает пустую строку в nil.
func NormalizeOptionalText(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// NormalizeEvidenceURLs отбрасывает пустые строки, обрезает пробелы и
// проверяет, что каждая ссылка — валидный http(s) URL.
func NormalizeEvidenceURLs(urls []string) ([]string, error) {
	normalized := make([]string, 0, len(urls))
	for _, raw := range urls {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if utf8.RuneCountInString(trimmed) > MaxEvidenceURLLength {
			return nil, fmt.Errorf("ссылка на доказательство слишком длинная")
		}
		parsed, err := url.Parse(trimmed)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, fmt.Errorf("невалидная ссылка на доказательство: %s", trimmed)
		}
		normalized = append(normalized, trimmed)
	}
	if len(normalized) > MaxEvidenceURLs {
		return nil, fmt.Errorf("не более %d ссылок на доказательства", MaxEvidenceURLs)
	}
	return normalized, nil
}
