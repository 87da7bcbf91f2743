package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"order-intake/internal/client"
	"order-intake/internal/config"
	"order-intake/internal/logger"
	"order-intake/internal/metrics"
	"order-intake/internal/model"
	"order-intake/internal/repository"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const conversionEvent = "CompletePayment"

type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliverySkipped   DeliveryStatus = "SKIPPED"
	DeliveryFailed    DeliveryStatus = "FAILED"
)

// DeliveryResult is the outcome of one forwarding attempt. It is reported to a
// DeliveryRecorder and never changes the order response.
type DeliveryResult struct {
	Status DeliveryStatus
	Reason string
	Err    error
}

func Delivered() DeliveryResult { return DeliveryResult{Status: DeliveryDelivered} }

func Skipped(reason string) DeliveryResult {
	return DeliveryResult{Status: DeliverySkipped, Reason: reason}
}

func Failed(err error) DeliveryResult {
	return DeliveryResult{Status: DeliveryFailed, Reason: "error", Err: err}
}

type NotificationForwarder interface {
	Forward(ctx context.Context, order model.OrderRecord) DeliveryResult
}

type notificationForwarderImpl struct {
	tiktokClient client.TikTokClient
	tiktokCfg    config.TikTok
	orderCfg     config.Order
	now          func() time.Time
}

func NewNotificationForwarder(tiktokClient client.TikTokClient, tiktokCfg *config.TikTok, orderCfg *config.Order) NotificationForwarder {
	return &notificationForwarderImpl{
		tiktokClient: tiktokClient,
		tiktokCfg:    *tiktokCfg,
		orderCfg:     *orderCfg,
		now:          time.Now,
	}
}

func (f *notificationForwarderImpl) Forward(ctx context.Context, order model.OrderRecord) (result DeliveryResult) {
	if !f.tiktokCfg.Enabled() {
		return Skipped("not_configured")
	}

	defer func() {
		if r := recover(); r != nil {
			result = Failed(fmt.Errorf("%w: panic: %v", client.ErrNotification, r))
		}
	}()

	if err := f.tiktokClient.TrackEvent(ctx, f.buildEvent(order)); err != nil {
		return Failed(err)
	}
	return Delivered()
}

func (f *notificationForwarderImpl) buildEvent(order model.OrderRecord) *model.TikTokEvent {
	amount := NormalizeAmount(order.Total, decimal.NewFromFloat(f.orderCfg.FallbackAmount)).InexactFloat64()

	phone := order.Phone
	if f.tiktokCfg.HashPhone {
		phone = hashIdentifier(phone)
	}

	return &model.TikTokEvent{
		PixelCode: f.tiktokCfg.PixelID,
		Event:     conversionEvent,
		EventID:   order.OrderNumber,
		Timestamp: f.now().UTC().Format(time.RFC3339),
		Context: model.TikTokContext{
			User: model.TikTokUser{PhoneNumber: phone},
		},
		Properties: model.TikTokProperties{
			Contents: []model.TikTokContent{{
				ContentType: "product",
				ContentID:   f.orderCfg.ProductID,
				ContentName: f.orderCfg.ProductName,
				Quantity:    quantityOf(order),
				Price:       amount,
			}},
			Currency: f.orderCfg.Currency,
			Value:    amount,
		},
	}
}

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.]`)
	leadingNumber = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)`)
)

// NormalizeAmount pulls the number out of a display price like "1,199 EGP".
// Unparseable and zero amounts yield fallback.
func NormalizeAmount(total string, fallback decimal.Decimal) decimal.Decimal {
	match := leadingNumber.FindString(nonNumeric.ReplaceAllString(total, ""))
	if match == "" {
		return fallback
	}
	amount, err := decimal.NewFromString(match)
	if err != nil || amount.IsZero() {
		return fallback
	}
	return amount
}

func quantityOf(order model.OrderRecord) int64 {
	q := strings.TrimSpace(order.Quantity)
	if n, err := strconv.ParseInt(q, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(q, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return 0
}

func hashIdentifier(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// DeliveryRecorder is where forwarding outcomes end up.
type DeliveryRecorder interface {
	Record(ctx context.Context, orderNumber string, result DeliveryResult)
}

type deliveryRecorderImpl struct {
	logger       *slog.Logger
	deliveryRepo repository.DeliveryRepository
}

// NewDeliveryRecorder logs and counts every outcome; deliveryRepo may be nil.
func NewDeliveryRecorder(logger *slog.Logger, deliveryRepo repository.DeliveryRepository) DeliveryRecorder {
	return &deliveryRecorderImpl{
		logger:       logger,
		deliveryRepo: deliveryRepo,
	}
}

func (r *deliveryRecorderImpl) Record(ctx context.Context, orderNumber string, result DeliveryResult) {
	log := logger.Resolve(r.logger)
	metrics.NotificationDeliveriesTotal.WithLabelValues(string(result.Status)).Inc()

	errText := ""
	switch result.Status {
	case DeliveryDelivered:
		log.Info("conversion event delivered", "order_number", orderNumber)
	case DeliverySkipped:
		log.Debug("conversion event skipped", "order_number", orderNumber, "reason", result.Reason)
	case DeliveryFailed:
		if result.Err != nil {
			errText = result.Err.Error()
		}
		log.Warn("conversion event failed", "order_number", orderNumber, "error", errText)
	}

	if r.deliveryRepo == nil {
		return
	}
	err := r.deliveryRepo.Create(ctx, &model.NotificationDelivery{
		OrderNumber: orderNumber,
		Status:      string(result.Status),
		Reason:      result.Reason,
		Error:       errText,
	})
	if err != nil {
		log.Error("store notification delivery", "order_number", orderNumber, "error", err)
	}
}
