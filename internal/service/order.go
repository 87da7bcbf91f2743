package service

import (
	"context"
	"fmt"
	"log/slog"
	"order-intake/internal/client"
	"order-intake/internal/config"
	"order-intake/internal/dto"
	"order-intake/internal/logger"
	"order-intake/internal/metrics"
	"order-intake/internal/model"
	"time"
)

// OrderService appends an order to the sheet and then tries to forward the
// conversion event. Only the append can fail a submission. Submissions are
// not deduplicated: the same order number sent twice becomes two rows.
type OrderService interface {
	SubmitOrder(ctx context.Context, req *dto.SubmitOrderRequest) error
}

type orderServiceImpl struct {
	sheetsClient client.SheetsClient
	forwarder    NotificationForwarder
	recorder     DeliveryRecorder
	layout       *model.RowLayout
	orderCfg     config.Order
	location     *time.Location
	now          func() time.Time
	logger       *slog.Logger
}

func NewOrderService(
	sheetsClient client.SheetsClient,
	forwarder NotificationForwarder,
	recorder DeliveryRecorder,
	layout *model.RowLayout,
	orderCfg *config.Order,
	logger *slog.Logger,
) (OrderService, error) {
	location, err := time.LoadLocation(orderCfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load order timezone: %w", err)
	}

	return &orderServiceImpl{
		sheetsClient: sheetsClient,
		forwarder:    forwarder,
		recorder:     recorder,
		layout:       layout,
		orderCfg:     *orderCfg,
		location:     location,
		now:          time.Now,
		logger:       logger,
	}, nil
}

func (s *orderServiceImpl) SubmitOrder(ctx context.Context, req *dto.SubmitOrderRequest) error {
	log := logger.Resolve(s.logger)
	record := s.newRecord(req)

	start := time.Now()
	res, err := s.sheetsClient.AppendRow(ctx, s.layout.Row(record))
	metrics.OrderSubmissionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("append order row: %w", err)
	}

	log.Info("order appended",
		"order_number", record.OrderNumber,
		"updated_range", res.UpdatedRange,
		"layout", s.layout.Version(),
	)

	// the row is durable from here; a cancelled request must not cut the event short
	s.notify(context.WithoutCancel(ctx), record)

	return nil
}

// notify never fails the order; a panic while forwarding or recording is logged.
func (s *orderServiceImpl) notify(ctx context.Context, record model.OrderRecord) {
	defer func() {
		if r := recover(); r != nil {
			logger.Resolve(s.logger).Error("conversion event handling panicked",
				"order_number", record.OrderNumber,
				"panic", fmt.Sprint(r),
			)
		}
	}()

	result := s.forwarder.Forward(ctx, record)
	s.recorder.Record(ctx, record.OrderNumber, result)
}

func (s *orderServiceImpl) newRecord(req *dto.SubmitOrderRequest) model.OrderRecord {
	whatsApp := string(req.WhatsApp)
	if whatsApp == "" {
		whatsApp = string(req.Phone)
	}

	return model.OrderRecord{
		OrderDate:   s.now().In(s.location).Format(s.orderCfg.DateLayout),
		OrderNumber: string(req.OrderNumber),
		Name:        string(req.Name),
		Phone:       string(req.Phone),
		WhatsApp:    whatsApp,
		Governorate: string(req.Governorate),
		Address:     string(req.Address),
		Plan:        string(req.Plan),
		Quantity:    string(req.Quantity),
		Total:       string(req.Total),
		ProductName: s.orderCfg.ProductName,
		Status:      s.orderCfg.Status,
		Source:      s.orderCfg.Source,
	}
}
