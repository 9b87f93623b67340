package wallet

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/polkiloo/paycore/internal/adapter/gateway"
	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
)

// Provider names the wallet gateway in errors and logs.
const Provider = "gcash"

var numberPattern = regexp.MustCompile(`^(09|\+639)\d{9}$`)

// ValidNumber reports whether number is a Philippine mobile wallet number.
func ValidNumber(number string) bool {
	return numberPattern.MatchString(number)
}

// Stub simulates an e-wallet provider. Every payment succeeds immediately.
type Stub struct {
	latency time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

var _ gateway.Gateway = (*Stub)(nil)

// NewStub creates a wallet stub that waits latency before answering.
func NewStub(latency time.Duration, logger *zap.Logger) *Stub {
	return &Stub{latency: latency, now: time.Now, logger: logger}
}

func (s *Stub) Method() model.PaymentMethod {
	return model.PaymentMethodWallet
}

func (s *Stub) CreateIntent(ctx context.Context, req gateway.IntentRequest) (*gateway.Intent, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	ref := fmt.Sprintf("GCASH-%d-%s", s.now().UnixMilli(), strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6]))
	s.logger.Info("wallet payment simulated",
		zap.String("reference", ref),
		zap.String("order_number", orderNumber(req.Order)),
	)
	return &gateway.Intent{
		Reference:    ref,
		ClientSecret: ref,
		Status:       model.GatewayStatusSucceeded,
		Metadata: model.WalletMetadata{
			WalletNumber:    req.WalletHandle,
			ReferenceNumber: ref,
			SimulatedStatus: model.GatewayStatusSucceeded,
		},
	}, nil
}

// Confirm replays the status recorded when the payment was created.
func (s *Stub) Confirm(ctx context.Context, reference string, recorded model.PaymentMetadata) (*gateway.Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meta, ok := recorded.(model.WalletMetadata)
	if !ok || meta.SimulatedStatus == "" {
		return nil, &domainErrors.GatewayError{
			Provider: Provider,
			Code:     "unknown_reference",
			Message:  "no recorded wallet status for " + reference,
		}
	}
	return &gateway.Confirmation{Status: meta.SimulatedStatus, Metadata: meta}, nil
}

func (s *Stub) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func orderNumber(o *model.Order) string {
	if o == nil {
		return ""
	}
	return o.Number
}
