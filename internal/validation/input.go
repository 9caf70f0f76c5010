package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength         = 3
	MaxUsernameLength         = 30
	MinDisplayNameLength      = 2
	MaxDisplayNameLength      = 100
	MinOrderTitleLength       = 3
	MaxOrderTitleLength       = 200
	MaxOrderDescriptionLength = 5000
	MaxReviewCommentLength    = 2000
	MaxCatalogNameLength      = 100
	MinPrice                  = 0.0
	MaxPrice                  = 100000000.0 // 100 миллионов
	MinRating                 = 1
	MaxRating                 = 5
	MinEstimatedHours         = 1
	MaxEstimatedHours         = 24 * 365 // год работы
)

// ValidateLength проверяет длину строки.
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

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	username = strings.TrimSpace(username)

	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	// Только буквы, цифры и подчеркивание
	usernameRegex := regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}

	if len(username) > 0 && unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("имя пользователя не может начинаться с цифры")
	}

	return nil
}

// ValidateDisplayName проверяет отображаемое имя.
func ValidateDisplayName(displayName string) error {
	if displayName == "" {
		return fmt.Errorf("отображаемое имя обязательно")
	}

	displayName = strings.TrimSpace(displayName)

	if err := ValidateLength("отображаемое имя", displayName, MinDisplayNameLength, MaxDisplayNameLength); err != nil {
		return err
	}

	displayNameRegex := regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ0-9\s\-_.,!?()]+$`)
	if !displayNameRegex.MatchString(displayName) {
		return fmt.Errorf("отображаемое имя содержит недопустимые символы")
	}

	return nil
}

// ValidateOrderTitle проверяет заголовок заказа.
func ValidateOrderTitle(title string) error {
	if title == "" {
		return fmt.Errorf("заголовок заказа обязателен")
	}

	title = strings.TrimSpace(title)

	if err := ValidateLength("заголовок заказа", title, MinOrderTitleLength, MaxOrderTitleLength); err != nil {
		return err
	}

	return nil
}

// ValidateOrderDescription проверяет описание заказа.
func ValidateOrderDescription(description *string) error {
	if description != nil && *description != "" {
		desc := strings.TrimSpace(*description)
		if err := ValidateLength("описание заказа", desc, 0, MaxOrderDescriptionLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePrice проверяет цену заказа или предложения.
func ValidatePrice(fieldName string, price float64) error {
	if price <= MinPrice {
		return fmt.Errorf("%s должна быть положительной", fieldName)
	}
	if price > MaxPrice {
		return fmt.Errorf("%s не может превышать %.0f", fieldName, MaxPrice)
	}
	return nil
}

// ValidateDueDate проверяет срок выполнения заказа.
func ValidateDueDate(dueDate time.Time, now time.Time) error {
	if dueDate.IsZero() {
		return fmt.Errorf("срок выполнения обязателен")
	}
	if !dueDate.After(now) {
		return fmt.Errorf("срок выполнения должен быть в будущем")
	}
	return nil
}

// ValidateEstimatedTime проверяет оценку времени выполнения в часах.
func ValidateEstimatedTime(hours int) error {
	if hours < MinEstimatedHours {
		return fmt.Errorf("оценка времени должна быть не менее %d часа", MinEstimatedHours)
	}
	if hours > MaxEstimatedHours {
		return fmt.Errorf("оценка времени не может превышать %d часов", MaxEstimatedHours)
	}
	return nil
}

// ValidateRating проверяет оценку в отзыве.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("оценка должна быть от %d до %d", MinRating, MaxRating)
	}
	return nil
}

// ValidateReviewComment проверяет комментарий отзыва.
func ValidateReviewComment(comment *string) error {
	if comment != nil && *comment != "" {
		c := strings.TrimSpace(*comment)
		if err := ValidateLength("комментарий", c, 0, MaxReviewCommentLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCatalogName проверяет название города или категории.
func ValidateCatalogName(fieldName, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s обязательно", fieldName)
	}
	return ValidateLength(fieldName, strings.TrimSpace(name), 1, MaxCatalogNameLength)
}
