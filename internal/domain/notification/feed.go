package notification

import "time"

// ══════════════════════════════════════════════════════════════════════════════
// FEED
// Лента уведомлений аккаунта. Новые уведомления добавляются в начало,
// лента ограничена по размеру: при переполнении вытесняются самые
// старые записи.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultFeedCap - размер ленты по умолчанию.
const DefaultFeedCap = 200

// Feed - упорядоченная лента уведомлений одного аккаунта.
type Feed struct {
	// AccountID - владелец ленты.
	AccountID string

	// Items - уведомления от новых к старым.
	Items []*Notification

	// Cap - максимальный размер ленты.
	Cap int

	// UpdatedAt - время последнего изменения.
	UpdatedAt time.Time
}

// NewFeed создаёт пустую ленту с размером по умолчанию.
func NewFeed(accountID string) *Feed {
	return &Feed{
		AccountID: accountID,
		Items:     []*Notification{},
		Cap:       DefaultFeedCap,
		UpdatedAt: time.Now().UTC(),
	}
}

// NewFeedWithCap создаёт пустую ленту с заданным размером.
func NewFeedWithCap(accountID string, cap int) *Feed {
	f := NewFeed(accountID)
	if cap > 0 {
		f.Cap = cap
	}
	return f
}

// Push добавляет уведомление в начало ленты. При переполнении
// вытесняется самое старое уведомление.
func (f *Feed) Push(n *Notification) error {
	if n == nil {
		return ErrEmptyNotificationID
	}
	if n.AccountID != f.AccountID {
		return ErrEmptyAccountID
	}

	f.Items = append([]*Notification{n}, f.Items...)
	if f.Cap > 0 && len(f.Items) > f.Cap {
		f.Items = f.Items[:f.Cap]
	}
	f.UpdatedAt = time.Now().UTC()
	return nil
}

// Get возвращает уведомление по ID.
func (f *Feed) Get(notificationID string) (*Notification, error) {
	for _, n := range f.Items {
		if n.ID == notificationID {
			return n, nil
		}
	}
	return nil, ErrNotificationNotFound
}

// MarkRead помечает уведомление прочитанным. Идемпотентно.
// Неизвестный ID возвращает ErrNotificationNotFound.
func (f *Feed) MarkRead(notificationID string) error {
	n, err := f.Get(notificationID)
	if err != nil {
		return err
	}
	if n.MarkRead() {
		f.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// MarkAllRead помечает все уведомления прочитанными. Идемпотентно.
// Возвращает число фактически изменённых уведомлений.
func (f *Feed) MarkAllRead() int {
	changed := 0
	for _, n := range f.Items {
		if n.MarkRead() {
			changed++
		}
	}
	if changed > 0 {
		f.UpdatedAt = time.Now().UTC()
	}
	return changed
}

// UnreadCount возвращает число непрочитанных уведомлений.
func (f *Feed) UnreadCount() int {
	count := 0
	for _, n := range f.Items {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// List возвращает уведомления от новых к старым.
// limit <= 0 означает "все".
func (f *Feed) List(limit int) []*Notification {
	if limit <= 0 || limit > len(f.Items) {
		limit = len(f.Items)
	}
	result := make([]*Notification, limit)
	copy(result, f.Items[:limit])
	return result
}

// Unread возвращает непрочитанные уведомления от новых к старым.
func (f *Feed) Unread() []*Notification {
	result := []*Notification{}
	for _, n := range f.Items {
		if !n.IsRead {
			result = append(result, n)
		}
	}
	return result
}

// Len возвращает размер ленты.
func (f *Feed) Len() int {
	return len(f.Items)
}

// Clear очищает ленту (используется при сбросе прогресса).
func (f *Feed) Clear() {
	f.Items = []*Notification{}
	f.UpdatedAt = time.Now().UTC()
}

// Clone возвращает глубокую копию ленты.
func (f *Feed) Clone() *Feed {
	clone := &Feed{
		AccountID: f.AccountID,
		Items:     make([]*Notification, len(f.Items)),
		Cap:       f.Cap,
		UpdatedAt: f.UpdatedAt,
	}
	for i, n := range f.Items {
		copied := *n
		clone.Items[i] = &copied
	}
	return clone
}
