// Package notification содержит доменную модель уведомлений.
// Уведомления создаются доменными событиями (прохождение миссии,
// новый уровень, значок) и складываются в ленту аккаунта.
package notification

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Type определяет вид уведомления.
type Type string

const (
	// TypeInfo - нейтральная информация.
	TypeInfo Type = "info"
	// TypeSuccess - позитивное событие (награда, прохождение).
	TypeSuccess Type = "success"
	// TypeWarning - предупреждение.
	TypeWarning Type = "warning"
	// TypeError - ошибка.
	TypeError Type = "error"
	// TypeThreat - угроза безопасности (падение оценки защищённости).
	TypeThreat Type = "threat"
)

// IsValid проверяет, что тип корректен.
func (t Type) IsValid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError, TypeThreat:
		return true
	default:
		return false
	}
}

// Emoji возвращает иконку для типа уведомления.
func (t Type) Emoji() string {
	switch t {
	case TypeInfo:
		return "ℹ️"
	case TypeSuccess:
		return "✅"
	case TypeWarning:
		return "⚠️"
	case TypeError:
		return "❌"
	case TypeThreat:
		return "🚨"
	default:
		return ""
	}
}

// DefaultPriority возвращает приоритет по умолчанию для типа.
func (t Type) DefaultPriority() Priority {
	switch t {
	case TypeThreat:
		return PriorityCritical
	case TypeError:
		return PriorityHigh
	case TypeWarning:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PRIORITY
// ══════════════════════════════════════════════════════════════════════════════

// Priority определяет важность уведомления.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// IsValid проверяет, что приоритет корректен.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// Order возвращает порядковый номер приоритета для сортировки.
func (p Priority) Order() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	default:
		return -1
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEmptyNotificationID - уведомление без идентификатора.
	ErrEmptyNotificationID = errors.New("notification id is required")

	// ErrEmptyAccountID - уведомление без аккаунта.
	ErrEmptyAccountID = errors.New("notification account id is required")

	// ErrInvalidType - неизвестный тип уведомления.
	ErrInvalidType = errors.New("invalid notification type")

	// ErrInvalidPriority - неизвестный приоритет.
	ErrInvalidPriority = errors.New("invalid notification priority")

	// ErrEmptyTitle - уведомление без заголовка.
	ErrEmptyTitle = errors.New("notification title is required")

	// ErrNotificationNotFound - уведомление не найдено в ленте.
	ErrNotificationNotFound = errors.New("notification not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Notification - одно уведомление в ленте аккаунта.
type Notification struct {
	// ID - уникальный идентификатор (UUID).
	ID string

	// AccountID - владелец ленты.
	AccountID string

	// Type - вид уведомления.
	Type Type

	// Priority - важность.
	Priority Priority

	// Title - заголовок.
	Title string

	// Message - текст уведомления.
	Message string

	// Timestamp - время создания.
	Timestamp time.Time

	// IsRead - флаг прочтения. Монотонный: false -> true, обратного
	// перехода не существует.
	IsRead bool
}

// NewNotificationParams содержит параметры для создания уведомления.
type NewNotificationParams struct {
	ID        string
	AccountID string
	Type      Type
	Priority  Priority
	Title     string
	Message   string
}

// NewNotification создаёт уведомление с валидацией. Пустой приоритет
// заменяется приоритетом по умолчанию для типа. Новое уведомление
// всегда непрочитано.
func NewNotification(params NewNotificationParams) (*Notification, error) {
	if params.ID == "" {
		return nil, ErrEmptyNotificationID
	}
	if params.AccountID == "" {
		return nil, ErrEmptyAccountID
	}
	if !params.Type.IsValid() {
		return nil, ErrInvalidType
	}
	if params.Title == "" {
		return nil, ErrEmptyTitle
	}

	priority := params.Priority
	if priority == "" {
		priority = params.Type.DefaultPriority()
	}
	if !priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	return &Notification{
		ID:        params.ID,
		AccountID: params.AccountID,
		Type:      params.Type,
		Priority:  priority,
		Title:     params.Title,
		Message:   params.Message,
		Timestamp: time.Now().UTC(),
		IsRead:    false,
	}, nil
}

// MarkRead помечает уведомление прочитанным. Идемпотентно: повторный
// вызов ничего не меняет. Возвращает true, если состояние изменилось.
func (n *Notification) MarkRead() bool {
	if n.IsRead {
		return false
	}
	n.IsRead = true
	return true
}

// String возвращает строковое представление для логов.
func (n *Notification) String() string {
	return fmt.Sprintf("Notification{ID: %s, Type: %s, Priority: %s, Read: %v}",
		n.ID, n.Type, n.Priority, n.IsRead)
}
