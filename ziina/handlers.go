package ziina

import (
	"errors"
	"net/http"
	"time"

	"github.com/gifthouse/pos_backend/config"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type createPaymentRequest struct {
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	Message string          `json:"message"`
}

// CreatePaymentHandler accepts an AED amount from the POS screen,
// converts to fils and creates the gateway intent. Gateway error bodies
// pass through verbatim.
func CreatePaymentHandler(client *Client, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment service not configured"})
			return
		}

		var req createPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if !req.Amount.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}

		message := req.Message
		if message == "" {
			message = "Gift House POS Payment"
		}

		intent, err := client.CreatePaymentIntent(c.Request.Context(), &CreatePaymentIntentRequest{
			Amount:            req.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
			CurrencyCode:      "AED",
			Message:           message,
			Test:              true,
			TransactionSource: "directApi",
		})
		if err != nil {
			var gwErr *GatewayError
			if errors.As(err, &gwErr) {
				config.LogError(logger, "ziina", "CreatePaymentHandler", "gateway error", req.Amount, err)
				c.JSON(gwErr.StatusCode, gin.H{"error": gwErr.Body})
				return
			}
			config.LogError(logger, "ziina", "CreatePaymentHandler", "create intent", req.Amount, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, intent)
	}
}

// GetPaymentHandler is the status poll endpoint the POS screen hits on
// its 3-second interval.
func GetPaymentHandler(client *Client, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment service not configured"})
			return
		}

		intent, err := client.GetPaymentIntent(c.Request.Context(), c.Param("id"))
		if err != nil {
			var gwErr *GatewayError
			if errors.As(err, &gwErr) {
				c.JSON(gwErr.StatusCode, gin.H{"error": gwErr.Body})
				return
			}
			config.LogError(logger, "ziina", "GetPaymentHandler", "get intent", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, intent)
	}
}

// WebhookHandler receives gateway callbacks, logs and acknowledges.
// Checkout does not consult these synchronously; the UI polls. Handling
// is serialized per intent with a best-effort redis lock so a burst of
// retried deliveries does not interleave.
func WebhookHandler(rdb *config.Redis, logger *logrus.Logger, kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var event WebhookEvent
		if err := c.ShouldBindJSON(&event); err != nil {
			config.LogError(logger, "ziina", "WebhookHandler", "bind "+kind, nil, err)
			// Malformed callback: acknowledge to avoid gateway retries.
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}

		if event.ID != "" {
			lock, err := rdb.ObtainLock(c.Request.Context(), "ziina:webhook:"+event.ID, 30*time.Second)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"module":    "ziina",
					"intent_id": event.ID,
				}).Warn("error obtaining webhook lock; proceeding without lock: " + err.Error())
			}
			if lock != nil {
				defer func() {
					if releaseErr := lock.Release(c.Request.Context()); releaseErr != nil {
						logger.WithFields(logrus.Fields{
							"module":    "ziina",
							"intent_id": event.ID,
						}).Warn("failed to release webhook lock: " + releaseErr.Error())
					}
				}()
			}
		}

		logger.WithFields(logrus.Fields{
			"module":    "ziina",
			"kind":      kind,
			"intent_id": event.ID,
			"status":    event.Status,
			"amount":    event.Amount,
			"currency":  event.Currency,
		}).Info("payment webhook received")

		c.JSON(http.StatusOK, gin.H{
			"status":  "received",
			"message": "webhook processed successfully",
		})
	}
}
