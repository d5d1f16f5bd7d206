package notificationControllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crazy-sam-02/foodexpress-sub001/models"
	"github.com/crazy-sam-02/foodexpress-sub001/realtime"
)

var ErrNotificationNotFound = errors.New("notification not found")

type PublishInput struct {
	Title     string `json:"title" binding:"required"`
	Message   string `json:"message" binding:"required"`
	Type      string `json:"type"`
	CreatedBy string `json:"createdBy"`
}

// NotificationView is a broadcast record merged with one user's read state.
// A user with no read row sees is_read=false and a null read_at.
type NotificationView struct {
	models.Notification
	IsRead bool       `json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}

// -------- Core Logic --------

// Publish stores a broadcast notification and pushes it on the realtime
// channel. The record is write-once; read tracking lives elsewhere.
func Publish(db *gorm.DB, hub *realtime.Hub, input PublishInput) (models.Notification, error) {
	n := models.Notification{
		Title:     input.Title,
		Message:   input.Message,
		Type:      input.Type,
		CreatedBy: input.CreatedBy,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&n).Error; err != nil {
		return models.Notification{}, err
	}

	if hub != nil {
		hub.Broadcast("notification:new", n)
	}
	return n, nil
}

// ListForUser returns every notification newest-first, left-merged with the
// user's read rows.
func ListForUser(db *gorm.DB, userID string) ([]NotificationView, error) {
	var notifications []models.Notification
	if err := db.Order("created_at DESC, id DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}

	var reads []models.NotificationRead
	if err := db.Where("user_id = ?", userID).Find(&reads).Error; err != nil {
		return nil, err
	}
	readByID := make(map[uint]models.NotificationRead, len(reads))
	for _, r := range reads {
		readByID[r.NotificationID] = r
	}

	views := make([]NotificationView, 0, len(notifications))
	for _, n := range notifications {
		view := NotificationView{Notification: n}
		if r, ok := readByID[n.ID]; ok {
			view.IsRead = r.IsRead
			view.ReadAt = r.ReadAt
		}
		views = append(views, view)
	}
	return views, nil
}

// MarkRead upserts the (notification, user) read row to read-at-now. The
// upsert is a single statement keyed on the pair, so concurrent MarkRead
// and MarkAllRead calls cannot lose each other's update, and a repeat call
// can only move read_at forward, never demote the row to unread.
func MarkRead(db *gorm.DB, userID string, notificationID uint) (models.NotificationRead, error) {
	var n models.Notification
	if err := db.First(&n, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NotificationRead{}, ErrNotificationNotFound
		}
		return models.NotificationRead{}, err
	}

	now := time.Now()
	read := models.NotificationRead{
		NotificationID: notificationID,
		UserID:         userID,
		IsRead:         true,
		ReadAt:         &now,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "notification_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}),
	}).Create(&read).Error; err != nil {
		return models.NotificationRead{}, err
	}

	if err := db.Where("notification_id = ? AND user_id = ?", notificationID, userID).
		First(&read).Error; err != nil {
		return models.NotificationRead{}, err
	}
	return read, nil
}

// MarkAllRead upserts a read row for every notification that exists when
// the scan runs. A notification published mid-operation may stay unread;
// callers re-poll for a fresh view.
func MarkAllRead(db *gorm.DB, userID string) error {
	var ids []uint
	if err := db.Model(&models.Notification{}).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]models.NotificationRead, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.NotificationRead{
			NotificationID: id,
			UserID:         userID,
			IsRead:         true,
			ReadAt:         &now,
		})
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "notification_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_read": true,
			"read_at": now,
		}),
	}).Create(&rows).Error
}

// -------- Handlers --------

// POST /notifications (admin)
func PublishNotificationHandler(db *gorm.DB, hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input PublishInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		n, err := Publish(db, hub, input)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish notification"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "notification": n})
	}
}

// requireOwnUser rejects requests where the path user does not match the
// authenticated user, so a valid token cannot touch another user's read state.
func requireOwnUser(c *gin.Context) (string, bool) {
	userID := c.Param("userId")
	if userID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot access another user's notifications"})
		return "", false
	}
	return userID, true
}

// GET /notifications/:userId
func ListNotificationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireOwnUser(c)
		if !ok {
			return
		}

		views, err := ListForUser(db, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
			return
		}
		c.JSON(http.StatusOK, views)
	}
}

// POST /notifications/:userId/read/:notifId
func MarkReadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireOwnUser(c)
		if !ok {
			return
		}

		notifID, err := strconv.ParseUint(c.Param("notifId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
			return
		}

		read, err := MarkRead(db, userID, uint(notifID))
		if err != nil {
			if errors.Is(err, ErrNotificationNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notification read"})
			return
		}
		c.JSON(http.StatusOK, read)
	}
}

// POST /notifications/:userId/read-all
func MarkAllReadHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireOwnUser(c)
		if !ok {
			return
		}

		if err := MarkAllRead(db, userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notifications read"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
