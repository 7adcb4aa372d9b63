package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	AccountInfo         = "account_info"
	ScheduleAppointment = "schedule_appointment"
	OrderTracking       = "order_tracking"
	BillPayment         = "bill_payment"
	TechnicalSupport    = "technical_support"
	ProductInfo         = "product_info"
)

// Builtin returns the six customer-service tasks. Their payloads are fixed
// placeholders; only ids and timestamps vary.
func Builtin() []Entry {
	return builtinAt(time.Now)
}

func builtinAt(now func() time.Time) []Entry {
	stamp := func(prefix string) string {
		return fmt.Sprintf("%s-%d", prefix, now().UnixMilli())
	}

	return []Entry{
		{
			Descriptor: Descriptor{
				ID:          AccountInfo,
				Name:        "Account Information",
				Description: "Retrieve account balance and transaction history",
				Endpoint:    "/api/tasks/account",
				Capability:  "Account information retrieval",
			},
			Handler: HandlerFunc(func(ctx context.Context, _ Params) (Result, error) {
				return success(map[string]any{
					"accountNumber": "****1234",
					"balance":       "$1,250.00",
					"lastPayment":   "2024-01-15",
					"nextDueDate":   "2024-02-15",
				}), ctx.Err()
			}),
		},
		{
			Descriptor: Descriptor{
				ID:          ScheduleAppointment,
				Name:        "Schedule Appointment",
				Description: "Schedule, reschedule, or cancel appointments",
				Endpoint:    "/api/tasks/appointment",
				Capability:  "Appointment scheduling",
			},
			Handler: HandlerFunc(func(ctx context.Context, p Params) (Result, error) {
				return success(map[string]any{
					"appointmentId": stamp("APT"),
					"date":          p.value("date", "2024-02-20"),
					"time":          p.value("time", "10:00 AM"),
					"type":          p.value("type", "General Consultation"),
				}), ctx.Err()
			}),
		},
		{
			Descriptor: Descriptor{
				ID:          OrderTracking,
				Name:        "Order Tracking",
				Description: "Track order status and shipping information",
				Endpoint:    "/api/tasks/order",
				Capability:  "Order status and tracking",
			},
			Handler: HandlerFunc(func(ctx context.Context, p Params) (Result, error) {
				return success(map[string]any{
					"orderNumber":       p.value("orderNumber", "ORD-12345"),
					"status":            "In Transit",
					"estimatedDelivery": "2024-01-25",
					"trackingNumber":    "TRK789456123",
				}), ctx.Err()
			}),
		},
		{
			Descriptor: Descriptor{
				ID:          BillPayment,
				Name:        "Bill Payment",
				Description: "Process payments and set up auto-pay",
				Endpoint:    "/api/tasks/payment",
				Capability:  "Bill payment processing",
			},
			Handler: HandlerFunc(func(ctx context.Context, p Params) (Result, error) {
				return success(map[string]any{
					"paymentId":          stamp("PAY"),
					"amount":             p.value("amount", "$125.00"),
					"method":             "Credit Card ****1234",
					"confirmationNumber": "CONF-" + confirmationCode(),
				}), ctx.Err()
			}),
		},
		{
			Descriptor: Descriptor{
				ID:          TechnicalSupport,
				Name:        "Technical Support",
				Description: "Create support tickets and check status",
				Endpoint:    "/api/tasks/support",
				Capability:  "Technical support ticketing",
			},
			Handler: HandlerFunc(func(ctx context.Context, p Params) (Result, error) {
				return success(map[string]any{
					"ticketId":            stamp("TKT"),
					"issue":               p.value("issue", "General Support Request"),
					"priority":            "Medium",
					"estimatedResolution": "24-48 hours",
				}), ctx.Err()
			}),
		},
		{
			Descriptor: Descriptor{
				ID:          ProductInfo,
				Name:        "Product Information",
				Description: "Get product details and recommendations",
				Endpoint:    "/api/tasks/product",
				Capability:  "Product information and recommendations",
			},
			Handler: HandlerFunc(func(ctx context.Context, p Params) (Result, error) {
				return success(map[string]any{
					"productName":  p.value("product", "Premium Service Plan"),
					"price":        "$29.99/month",
					"features":     []string{"24/7 Support", "Priority Service", "Advanced Features"},
					"availability": "Available",
				}), ctx.Err()
			}),
		},
	}
}

func success(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

// value returns params[key] unless it is absent, null or an empty string.
func (p Params) value(key string, def any) any {
	v, found := p[key]
	if !found || v == nil {
		return def
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return def
	}
	return v
}

func confirmationCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
