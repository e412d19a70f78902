package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ideatoapp/chatgateway/logger"
	mid "github.com/ideatoapp/chatgateway/middleware/security"
	"github.com/ideatoapp/chatgateway/storage"
	"github.com/ideatoapp/chatgateway/tools/errs"
)

// MessageAPI serves the offline half of the relay: conversation history
// (which flips unread messages to read) and the contact list.
type MessageAPI struct {
	store storage.AccountStore
}

func NewMessageAPI(store storage.AccountStore) *MessageAPI {
	return &MessageAPI{store: store}
}

// GetConversation pages a two-party conversation oldest-first and marks the
// fetched inbound messages read. The two store calls are independent; a
// lost read-flag update is a recoverable inconsistency, not a failure.
func (m *MessageAPI) GetConversation(c *gin.Context) {
	userID := mid.UserID(c)
	otherUserID := c.Param("userId")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	msgs, err := m.store.GetConversation(c.Request.Context(), userID, otherUserID, limit, offset)
	if err != nil {
		logger.Errorf("[messages] conversation user=%s other=%s err=%v", userID, otherUserID, err)
		c.JSON(http.StatusInternalServerError, errs.ErrPersistence)
		return
	}

	if err := m.store.MarkMessagesRead(c.Request.Context(), otherUserID, userID); err != nil {
		logger.Warnf("[messages] mark read user=%s other=%s err=%v", userID, otherUserID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
		"pagination": gin.H{
			"page":    page,
			"limit":   limit,
			"hasMore": len(msgs) == limit,
		},
	})
}

func (m *MessageAPI) ListContacts(c *gin.Context) {
	userID := mid.UserID(c)
	contacts, err := m.store.ListContacts(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("[messages] list contacts user=%s err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, errs.ErrPersistence)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

type addContactRequest struct {
	ContactID string `json:"contactId" binding:"required"`
}

func (m *MessageAPI) AddContact(c *gin.Context) {
	userID := mid.UserID(c)
	var req addContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	if req.ContactID == userID {
		c.JSON(http.StatusBadRequest, errs.ErrValidation.WithDetail("cannot add yourself as contact"))
		return
	}
	if _, err := m.store.GetUser(c.Request.Context(), req.ContactID); err != nil {
		c.JSON(http.StatusNotFound, errs.ErrRecordNotFound)
		return
	}

	contact, err := m.store.AddContact(c.Request.Context(), userID, req.ContactID)
	if err != nil {
		if errs.ErrRecordExists.Is(err) {
			c.JSON(http.StatusBadRequest, errs.ErrRecordExists)
			return
		}
		logger.Errorf("[messages] add contact user=%s contact=%s err=%v", userID, req.ContactID, err)
		c.JSON(http.StatusInternalServerError, errs.ErrPersistence)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contact": contact})
}
